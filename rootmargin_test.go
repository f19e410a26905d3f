package lazyload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRootMargin(t *testing.T) {
	px := func(v float64) Length { return Length{Value: v} }
	pct := func(v float64) Length { return Length{Value: v, Percent: true} }
	for _, tc := range []struct {
		input    string
		expected RootMargin
		err      bool
	}{
		{input: ``, expected: RootMargin{}},
		{input: `   `, expected: RootMargin{}},
		{input: `0`, expected: RootMargin{}},
		{input: `10px`, expected: RootMargin{px(10), px(10), px(10), px(10)}},
		{input: `10px 5%`, expected: RootMargin{px(10), pct(5), px(10), pct(5)}},
		{input: `1px 2px 3px`, expected: RootMargin{px(1), px(2), px(3), px(2)}},
		{input: `1px 2px 3px 4px`, expected: RootMargin{px(1), px(2), px(3), px(4)}},
		{input: `-50px 0 0 -12.5%`, expected: RootMargin{px(-50), px(0), px(0), pct(-12.5)}},
		{input: "\t200px\n", expected: RootMargin{px(200), px(200), px(200), px(200)}},
		{input: `1px 2px 3px 4px 5px`, err: true},
		{input: `10`, err: true},
		{input: `10em`, err: true},
		{input: `px`, err: true},
		{input: `NaN%`, err: true},
		{input: `1px,2px`, err: true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			margin, err := ParseRootMargin(tc.input)
			if tc.err {
				require.ErrorIs(t, err, ErrInvalidField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, margin)
		})
	}
}

func TestRootMargin_String(t *testing.T) {
	margin, err := ParseRootMargin(`10px 5%`)
	require.NoError(t, err)
	assert.Equal(t, `10px 5% 10px 5%`, margin.String())
}

func TestLength_Resolve(t *testing.T) {
	assert.Equal(t, 12.0, Length{Value: 12}.Resolve(600))
	assert.Equal(t, 60.0, Length{Value: 10, Percent: true}.Resolve(600))
}
