package rcel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalBool(t *testing.T, e *Engine, expr string, this any) bool {
	t.Helper()
	prg, err := e.Compile(expr)
	require.NoError(t, err)
	val, err := Eval(prg, Activation{This: this, Rules: map[string]any{}, Now: nil})
	require.NoError(t, err)
	b, ok := val.Value().(bool)
	require.True(t, ok, "expression %q did not return bool, got %T", expr, val.Value())
	return b
}

func TestEngineBuiltins(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	cases := []struct {
		expr string
		this any
		want bool
	}{
		{`isIp(this)`, "192.168.1.1", true},
		{`isIp(this)`, "not-an-ip", false},
		{`isIp(this, 4)`, "::1", false},
		{`isIp(this, 6)`, "::1", true},
		{`isIpPrefix(this)`, "10.0.0.0/8", true},
		{`isHostname(this)`, "example.com", true},
		{`isHostname(this)`, "-bad", false},
		{`isEmail(this)`, "a@b.com", true},
		{`isUri(this)`, "https://example.com", true},
		{`isUriRef(this)`, "/relative", true},
		{`isHostAndPort(this, true)`, "example.com:80", true},
		{`format(this, "email")`, "a@b.com", true},
		{`format(this, "hostname")`, "bad_host", false},
		{`this.startsWith("abc")`, "abcdef", true},
		{`this.endsWith("def")`, "abcdef", true},
		{`this.contains("cd")`, "abcdef", true},
	}
	for _, c := range cases {
		got := evalBool(t, e, c.expr, c.this)
		assert.Equal(t, c.want, got, "expr %q on %v", c.expr, c.this)
	}
}

func TestEngineUnique(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	prg, err := e.Compile(`this.unique()`)
	require.NoError(t, err)

	val, err := Eval(prg, Activation{This: []any{int64(1), int64(2), int64(3)}, Rules: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, true, val.Value())

	val, err = Eval(prg, Activation{This: []any{int64(1), int64(1)}, Rules: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, false, val.Value())
}

func TestEngineIsNanIsInf(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	prg, err := e.Compile(`isNan(this)`)
	require.NoError(t, err)
	val, err := Eval(prg, Activation{This: float64(0) / zeroFloat(), Rules: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, true, val.Value())

	prg, err = e.Compile(`isInf(this)`)
	require.NoError(t, err)
	val, err = Eval(prg, Activation{This: float64(1) / zeroFloat(), Rules: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, true, val.Value())
}

func zeroFloat() float64 { return 0 }

func TestEngineCompileCaches(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	p1, err := e.Compile(`this == "x"`)
	require.NoError(t, err)
	p2, err := e.Compile(`this == "x"`)
	require.NoError(t, err)
	assert.Same(t, p1, p2, "identical expression text should hit the program cache")
}

func TestCheckFormat(t *testing.T) {
	assert.True(t, CheckFormat("email", "a@b.com"))
	assert.False(t, CheckFormat("email", "not-an-email"))
	assert.True(t, CheckFormat("uuid", "123e4567-e89b-12d3-a456-426614174000"))
	assert.False(t, CheckFormat("uuid", "not-a-uuid"))
	assert.True(t, CheckFormat("header_name", "Content-Type"))
	assert.False(t, CheckFormat("header_name", "bad header"))
	assert.True(t, CheckFormat("media_type", "text/plain"))
	assert.False(t, CheckFormat("unknown_format_name", "anything"))
}
