// Package catalog 管理 profile 目錄：哪些 profile 存在、各自對應哪個設定檔。
// 設定檔來源一律是平坦的 fs.FS（go:embed 或 os.DirFS）。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/setting"
)

var (
	ErrDupID   = errs.NewFatal("duplicate profile id")
	ErrDupName = errs.NewFatal("duplicate profile name")
)

type Entry struct {
	ID         string
	Name       string
	ConfigName string
}

type Summary struct {
	ID          string   `json:"id"           yaml:"id"`
	Name        string   `json:"name"         yaml:"name"`
	Description string   `json:"description"  yaml:"description"`
	Sizes       []int    `json:"sizes"        yaml:"sizes,flow"`
	Transforms  []string `json:"transforms"   yaml:"transforms,flow"`
	Mode        string   `json:"mode"         yaml:"mode"`
	Allocator   bool     `json:"allocator"    yaml:"allocator"`
	Target      string   `json:"target"       yaml:"target"`
	Weighting   string   `json:"weighting"    yaml:"weighting"`
}

type Catalog struct {
	byID   map[string]Entry
	byName map[string]Entry
	ids    []string            // 用來穩定排序
	unique map[string]struct{} // 一個 profile 一個檔案，檔名需唯一
	config *multiFS
	frozen bool
	sum    []Summary
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[string]Entry{},
		byName: map[string]Entry{},
		ids:    make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// NewAuto 建立目錄、註冊所有設定檔並凍結
func NewAuto(cfg ...fs.FS) (*Catalog, error) {
	c, err := New(cfg...)
	if err != nil {
		return nil, err
	}
	if err := c.RegisterAll(); err != nil {
		return nil, err
	}
	c.Freeze()
	return c, nil
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[string]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.ID = strings.TrimSpace(meta.ID)
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.ID == "" {
			return errs.NewFatal("profile id required")
		}
		if meta.Name == "" {
			return errs.NewFatal("profile name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.ID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.ID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.ID)
	}
	sort.Strings(c.ids)
	return nil
}

// RegisterAll
//
// 掃描所有來源的設定檔，解析成 *setting.EngineSetting，並以檔內宣告的 id/name 註冊。
// 任一檔案失敗即回傳 error；全部成功才一次寫入。檔名排序後處理。
func (c *Catalog) RegisterAll() error {
	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	entries := make([]Entry, 0, len(names))
	for _, base := range names {
		if strings.HasPrefix(base, ".") {
			continue
		}
		es, err := c.parse(base)
		if err != nil {
			return errs.WrapWithExtra(err, "parse profile failed", base)
		}
		entries = append(entries, Entry{ID: es.ID, Name: es.Name, ConfigName: base})
	}
	return c.Register(entries...)
}

func (c *Catalog) GetByID(id string) (Entry, bool) {
	m, ok := c.byID[strings.TrimSpace(id)]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	m, ok := c.byName[name]
	return m, ok
}

// Lookup 先以 id 找，再以 name 找
func (c *Catalog) Lookup(key string) (Entry, bool) {
	if e, ok := c.GetByID(key); ok {
		return e, true
	}
	return c.GetByName(key)
}

func (c *Catalog) IDs() []string {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]string(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	order := c.IDs()
	m := make([]Entry, 0, len(c.ids))
	for _, id := range order {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// Summary 凍結後才可取得；結果會快取
func (c *Catalog) Summary() ([]Summary, error) {
	if !c.frozen {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if c.sum != nil {
		return c.sum, nil
	}
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		es, err := c.SettingByID(id)
		if err != nil {
			return nil, errs.Wrap(err, "parse profile failed")
		}
		tfs := make([]string, 0, len(es.Transforms))
		for _, tf := range es.TransformSet() {
			tfs = append(tfs, tf.Name())
		}
		out = append(out, Summary{
			ID:          es.ID,
			Name:        es.Name,
			Description: es.Description,
			Sizes:       es.Sizes,
			Transforms:  tfs,
			Mode:        es.Mode().String(),
			Allocator:   es.Scan.Allocator,
			Target:      es.Target().String(),
			Weighting:   es.Rank.Weighting,
		})
	}
	c.sum = out
	return c.sum, nil
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾
	if !isConfigName(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigName(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (c *Catalog) parse(configName string) (*setting.EngineSetting, error) {
	src, ok := c.config.GetFS(configName)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, configName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return setting.ByExt(configName, raw)
}

// SettingByID
//
// 每次呼叫都重新解析，呼叫端拿到的是獨立的一份設定
func (c *Catalog) SettingByID(id string) (*setting.EngineSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Warnf("profile id %q does not exist in catalog", id)
	}
	return c.parse(e.ConfigName)
}

// SettingByName
func (c *Catalog) SettingByName(name string) (*setting.EngineSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("profile name %q does not exist in catalog", name)
	}
	return c.parse(e.ConfigName)
}

// Setting 以 id 或 name 查找
func (c *Catalog) Setting(key string) (*setting.EngineSetting, error) {
	e, ok := c.Lookup(key)
	if !ok {
		return nil, errs.Warnf("profile %q does not exist in catalog", key)
	}
	return c.parse(e.ConfigName)
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 16),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 其他資源（例如 embed.go）略過
			if !isConfigName(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}
