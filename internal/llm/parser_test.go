package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding prose", input: "Acá va:\n{\"a\":{\"b\":2}}\nListo.", want: `{"a":{"b":2}}`},
		{name: "whitespace", input: "  \n{\"a\":1}\n ", want: `{"a":1}`},
		{name: "no object", input: "hola", want: "hola"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Intent string `json:"intent"`
	}
	require.NoError(t, decodeJSON("```json\n{\"intent\":\"help\"}\n```", &v))
	assert.Equal(t, "help", v.Intent)

	assert.Error(t, decodeJSON("", &v))
	assert.Error(t, decodeJSON("{not json}", &v))
}
