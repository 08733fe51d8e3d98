package easemob_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

func TestParseTargetType(t *testing.T) {
	t.Parallel()

	tests := map[string]easemob.TargetType{
		"user":       easemob.TargetUser,
		"users":      easemob.TargetUser,
		" USER ":     easemob.TargetUser,
		"chatgroups": easemob.TargetGroup,
		"group":      easemob.TargetGroup,
		"groups":     easemob.TargetGroup,
		"chatgroup":  easemob.TargetGroup,
		"chatrooms":  easemob.TargetRoom,
		"room":       easemob.TargetRoom,
		"ChatRoom":   easemob.TargetRoom,
	}

	for input, want := range tests {
		got, err := easemob.ParseTargetType(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := easemob.ParseTargetType("robots")
	require.Error(t, err)
	assert.True(t, easemob.IsValidationError(err))
}

func TestTargetTypeLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "group", easemob.TargetGroup.Label())
	assert.Equal(t, "chat room", easemob.TargetRoom.Label())
	assert.True(t, easemob.TargetUser.Valid())
	assert.False(t, easemob.TargetType("group").Valid())
	assert.Empty(t, easemob.TargetType("nope").Label())
}

func TestParseMessageType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"text", "image", "audio", "video", "location", "command", "custom"} {
		messageType, err := easemob.ParseMessageType(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(messageType))
		assert.NotEmpty(t, messageType.Label())
	}

	messageType, err := easemob.ParseMessageType(" Text ")
	require.NoError(t, err)
	assert.Equal(t, easemob.MessageText, messageType)
	assert.Equal(t, "voice message", easemob.MessageAudio.Label())

	_, err = easemob.ParseMessageType("img")
	assert.True(t, easemob.IsValidationError(err))
}

func TestTarget(t *testing.T) {
	t.Parallel()

	single := easemob.To("alice")
	assert.False(t, single.IsList())
	assert.Equal(t, []string{"alice"}, single.IDs())

	data, err := json.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `"alice"`, string(data))

	ids := []string{"alice", "bob"}
	list := easemob.ToMany(ids...)
	ids[0] = "mallory"

	assert.True(t, list.IsList())
	assert.Equal(t, []string{"alice", "bob"}, list.IDs())

	data, err = json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `["alice","bob"]`, string(data))

	// a one-element list stays a list on the wire
	data, err = json.Marshal(easemob.ToMany("carol"))
	require.NoError(t, err)
	assert.JSONEq(t, `["carol"]`, string(data))

	returned := list.IDs()
	returned[0] = "mallory"
	assert.Equal(t, "alice", list.IDs()[0])
}

func TestTarget_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, easemob.To("alice").Validate())
	require.NoError(t, easemob.ToMany("a", "b").Validate())

	for name, target := range map[string]easemob.Target{
		"zero value":  {},
		"empty list":  easemob.ToMany(),
		"blank id":    easemob.To("  "),
		"blank entry": easemob.ToMany("alice", ""),
	} {
		err := target.Validate()

		var validationErr *easemob.ValidationError
		require.ErrorAs(t, err, &validationErr, name)
		assert.Equal(t, "target", validationErr.Field, name)
	}
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	target, err := easemob.ParseTarget("alice")
	require.NoError(t, err)
	assert.False(t, target.IsList())

	target, err = easemob.ParseTarget([]string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, target.IDs())

	var decoded interface{}
	require.NoError(t, json.Unmarshal([]byte(`["g1","g2"]`), &decoded))

	target, err = easemob.ParseTarget(decoded)
	require.NoError(t, err)
	assert.True(t, target.IsList())
	assert.Equal(t, []string{"g1", "g2"}, target.IDs())

	_, err = easemob.ParseTarget([]interface{}{"a", 1})
	assert.True(t, easemob.IsValidationError(err))

	_, err = easemob.ParseTarget(42)
	assert.True(t, easemob.IsValidationError(err))
}

func TestStripInternalFields(t *testing.T) {
	t.Parallel()

	result := easemob.Result{
		"path":            "/users",
		"uri":             "https://a1.easemob.com/org/app/users",
		"timestamp":       1700000000,
		"organization":    "org",
		"application":     "uuid",
		"action":          "get",
		"duration":        4,
		"applicationName": "app",
		"entities":        []interface{}{},
		"count":           0,
	}

	stripped := easemob.StripInternalFields(result)
	assert.Equal(t, easemob.Result{"entities": []interface{}{}, "count": 0}, stripped)
	assert.Len(t, result, 10, "input is not modified")
	assert.Equal(t, stripped, easemob.StripInternalFields(stripped))
	assert.Nil(t, easemob.StripInternalFields(nil))
}

func TestResult_Decode(t *testing.T) {
	t.Parallel()

	var result easemob.Result
	require.NoError(t, json.Unmarshal([]byte(`{"entities":[{"uuid":"u1","username":"alice","activated":true}]}`), &result))

	var users []easemob.User
	require.NoError(t, result.Decode("entities", &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.True(t, users[0].Activated)

	err := result.Decode("data", &users)
	require.ErrorIs(t, err, easemob.ErrFieldNotFound)

	var wrongShape string
	require.Error(t, result.Decode("entities", &wrongShape))
}

func TestFileEntity_Ref(t *testing.T) {
	t.Parallel()

	var entity easemob.FileEntity
	require.NoError(t, json.Unmarshal([]byte(`{"uuid":"f-1","type":"chatfile","share-secret":"s3cr3t"}`), &entity))

	assert.Equal(t, easemob.FileRef{UUID: "f-1", ShareSecret: "s3cr3t"}, entity.Ref())
}
