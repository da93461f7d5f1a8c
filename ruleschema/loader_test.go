package ruleschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestLoadStaticSourceDecodesMessagesFieldsAndOneofs(t *testing.T) {
	const doc = `{
		"messages": [
			{
				"name": "ruleschema.test.Thing",
				"message": {"cel": [{"id": "x", "expression": "true"}]},
				"fields": {
					"1": {"required": true, "string": {"format": 1}}
				},
				"oneofs": {
					"which": {"required": true}
				}
			}
		]
	}`

	source, err := LoadStaticSource(strings.NewReader(doc))
	require.NoError(t, err)

	name := protoreflect.FullName("ruleschema.test.Thing")
	desc := buildSourceTestDescriptor(t)
	require.Equal(t, name, desc.FullName())

	msgRule := source.messages[name]
	require.NotNil(t, msgRule)
	require.Len(t, msgRule.Cel, 1)
	assert.Equal(t, "x", msgRule.Cel[0].ID)

	fieldRule := source.fields[fieldKey{name, protoreflect.FieldNumber(1)}]
	require.NotNil(t, fieldRule)
	assert.True(t, fieldRule.Required)
	require.NotNil(t, fieldRule.String)
	assert.Equal(t, FormatEmail, fieldRule.String.Format)

	oneofRule := source.oneofs[oneofKey{name, protoreflect.Name("which")}]
	require.NotNil(t, oneofRule)
	assert.True(t, oneofRule.Required)
}

func TestLoadStaticSourceRejectsInvalidMessageName(t *testing.T) {
	const doc = `{"messages": [{"name": "not a valid name"}]}`
	_, err := LoadStaticSource(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestLoadStaticSourceRejectsNonNumericFieldKey(t *testing.T) {
	const doc = `{
		"messages": [
			{"name": "ruleschema.test.Thing", "fields": {"not-a-number": {"required": true}}}
		]
	}`
	_, err := LoadStaticSource(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestLoadStaticSourceRejectsMalformedJSON(t *testing.T) {
	_, err := LoadStaticSource(strings.NewReader(`{not json`))
	assert.Error(t, err)
}
