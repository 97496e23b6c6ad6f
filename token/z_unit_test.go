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

package token

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllFields(t *testing.T) {
	for _, s := range []Side{SideA, SideB} {
		for _, c := range []Count{Count3, Count4} {
			for _, p := range []Parity{Odd, Even} {
				tok := New(s, c, p)
				require.True(t, tok.IsValid())

				back, err := Parse(tok.String())
				require.NoError(t, err)
				assert.Equal(t, tok, back)
				assert.Equal(t, s, back.Side())
				assert.Equal(t, c, back.Count())
				assert.Equal(t, p, back.Parity())

				rec, ok := Denormalize(tok, 7)
				require.True(t, ok)
				assert.Equal(t, tok, Normalize(rec))
			}
		}
	}
}

func TestCanonicalOrder(t *testing.T) {
	want := []string{"A3O", "A3E", "A4O", "A4E", "B3O", "B3E", "B4O", "B4E"}
	all := All()
	require.Len(t, all, Size)
	for i, tok := range all {
		assert.Equal(t, want[i], tok.String())
		assert.Equal(t, i, tok.Index())
	}
	assert.Equal(t, -1, None.Index())
	assert.Equal(t, -1, Invalid.Index())
}

func TestNormalizeInvalidIsValue(t *testing.T) {
	cases := []Record{
		{StartPoint: "UP", LineCount: 3, OddEven: "ODD"},
		{StartPoint: "LEFT", LineCount: 5, OddEven: "ODD"},
		{StartPoint: "LEFT", LineCount: 3, OddEven: "MAYBE"},
		{},
	}
	for _, r := range cases {
		assert.Equal(t, Invalid, Normalize(r))
	}
	assert.Equal(t, MustParse("B4E")[0], Normalize(Record{StartPoint: " right ", LineCount: 4, OddEven: "even"}))
}

func TestFlipsAreInvolutions(t *testing.T) {
	for _, tok := range All() {
		assert.Equal(t, tok, tok.FlipSide().FlipSide())
		assert.Equal(t, tok, tok.FlipCount().FlipCount())
		assert.Equal(t, tok, tok.FlipParity().FlipParity())
		assert.Equal(t, tok.Count(), tok.FlipSide().Count())
		assert.NotEqual(t, tok.Side(), tok.FlipSide().Side())
	}
	assert.Equal(t, None, None.FlipSide())
	assert.Equal(t, Invalid, Invalid.FlipParity())
}

func TestParseRejects(t *testing.T) {
	for _, s := range []string{"", "A3", "C3O", "A5O", "A3X", "A3OO"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestFromRecordsOrder(t *testing.T) {
	recs := []Record{
		{Round: 1, StartPoint: "LEFT", LineCount: 3, OddEven: "ODD"},
		{Round: 2, StartPoint: "RIGHT", LineCount: 4, OddEven: "EVEN"},
		{Round: 3, StartPoint: "?", LineCount: 4, OddEven: "EVEN"},
	}
	seq := FromRecords(recs, OldestFirst)
	assert.Equal(t, "[INVALID B4E A3O]", seq.String())
	assert.Equal(t, 1, seq.Invalids())

	seq = FromRecords(recs, NewestFirst)
	assert.Equal(t, "[A3O B4E INVALID]", seq.String())
	assert.Equal(t, None, seq.At(3))
	_, ok := seq.Window(1, 3)
	assert.False(t, ok)
}

func TestRecordDecodesStringNumbers(t *testing.T) {
	var recs []Record
	raw := `[{"date_round":"101","start_point":"LEFT","line_count":"4","odd_even":"ODD"},
	         {"date_round":100,"start_point":"RIGHT","line_count":3,"odd_even":"EVEN"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, FlexInt(101), recs[0].Round)
	assert.Equal(t, "A4O", Normalize(recs[0]).String())
	assert.Equal(t, "B3E", Normalize(recs[1]).String())
}

func TestTokenTextMarshal(t *testing.T) {
	b, err := json.Marshal(MustParse("A4E", "B3O"))
	require.NoError(t, err)
	assert.JSONEq(t, `["A4E","B3O"]`, string(b))

	var back Sequence
	require.NoError(t, json.Unmarshal([]byte(`["A4E","NONE"]`), &back))
	assert.Equal(t, None, back[1])
}
