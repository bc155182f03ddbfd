package relay

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Message
		wantErr bool
	}{
		{"clear", `{"type":"console-clear"}`, Message{Type: TypeClear}, false},
		{"clear ignores data", `{"type":"console-clear","data":"x"}`, Message{Type: TypeClear}, false},
		{"log", `{"type":"console-log","data":"x"}`, Message{Type: TypeLog, Data: "x"}, false},
		{"warn", `{"type":"console-warn","data":"careful"}`, Message{Type: TypeWarn, Data: "careful"}, false},
		{"error", `{"type":"console-error","data":"boom"}`, Message{Type: TypeError, Data: "boom"}, false},
		{"empty data allowed", `{"type":"console-log","data":""}`, Message{Type: TypeLog}, false},
		{"missing data", `{"type":"console-log"}`, Message{}, true},
		{"numeric data", `{"type":"console-log","data":42}`, Message{}, true},
		{"unknown type", `{"type":"console-table","data":"x"}`, Message{}, true},
		{"missing type", `{"data":"x"}`, Message{}, true},
		{"type not string", `{"type":7}`, Message{}, true},
		{"array", `["console-log","x"]`, Message{}, true},
		{"not json", `console-log x`, Message{}, true},
		{"empty", ``, Message{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRejectsOversized(t *testing.T) {
	raw := `{"type":"console-log","data":"` + strings.Repeat("a", MaxMessageBytes) + `"}`
	_, err := Decode([]byte(raw))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestMarshalDecode(t *testing.T) {
	for _, msg := range []Message{
		{Type: TypeError, Data: "JavaScript Error: x at line 3"},
		{Type: TypeLog},
		{Type: TypeClear},
	} {
		raw, err := sonic.Marshal(msg)
		require.NoError(t, err)

		got, err := Decode(raw)
		require.NoError(t, err, string(raw))
		assert.Equal(t, msg, got)
	}
}

func TestTypeKind(t *testing.T) {
	k, ok := TypeLog.Kind()
	assert.True(t, ok)
	assert.Equal(t, KindLog, k)

	k, ok = TypeError.Kind()
	assert.True(t, ok)
	assert.Equal(t, KindError, k)

	_, ok = TypeClear.Kind()
	assert.False(t, ok)
}
