// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package setting 載入並驗證引擎設定（profile）。
package setting

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/patternlab/errs"
	"gopkg.in/yaml.v3"
)

// ByYAML
// 讀取 YAML 設定、初始化並執行基本檢查後回傳；未知欄位視為錯誤。
func ByYAML(data []byte) (*EngineSetting, error) {
	es := &EngineSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(es); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(err, "failed to unmarshal yaml")
	}

	// 設定檔初始化
	if err := es.init(); err != nil {
		return nil, errs.Wrap(err, "engine setting initialized err")
	}
	return es, nil
}

// ByJSON
// 讀取 JSON 設定、初始化並執行基本檢查後回傳；未知欄位視為錯誤。
func ByJSON(data []byte) (*EngineSetting, error) {
	es := &EngineSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(es); err != nil {
		return nil, errs.Wrap(err, "can not unmarshal json byte")
	}

	if err := es.init(); err != nil {
		return nil, errs.Wrap(err, "engine setting initialized err")
	}
	return es, nil
}

// ByExt 依副檔名選擇解析方式
func ByExt(filename string, raw []byte) (*EngineSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ByYAML(raw)
	case ".json":
		return ByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", filename)
	}
}
