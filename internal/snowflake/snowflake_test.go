package snowflake

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestSetupSnowflake(t *testing.T) {
	err := Setup(0)
	if err != nil {
		t.Error(err)
	}
}

func TestSetupTwice(t *testing.T) {
	_ = Setup(0)
	if err := Setup(1); err == nil {
		t.Error("Expected error on second Setup, but there wasn't")
	}
}

func TestGenerateSnowflake(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Error(err)
	}
	if id.IsZero() {
		t.Error("Generated snowflake is zero")
	}
	if time.Since(id.Time()) > time.Minute {
		t.Errorf("Generated snowflake time %s is too far in the past", id.Time())
	}
}

func TestSnowflakeIncrementOverflow(t *testing.T) {
	for n := 0; n < 100000; n++ {
		_, err := Generate()
		if err != nil {
			return
		}
	}
	t.Error("Expected increment overflow, but there wasn't")
}

func TestTimestamp(t *testing.T) {
	// 175928847299117063 was created at 2016-04-30 11:18:25.796 UTC
	id := ID(175928847299117063)
	if got := id.Timestamp(); got != 1462015105796 {
		t.Errorf("Timestamp() = %d, want 1462015105796", got)
	}

	parts := Extract(id)
	if parts.WorkerID != 32 || parts.Increment != 7 {
		t.Errorf("Extract() = %+v, want worker 32 increment 7", parts)
	}
}

func TestFromTime(t *testing.T) {
	ts := time.UnixMilli(1462015105796)
	id := FromTime(ts)
	if id.Timestamp() != ts.UnixMilli() {
		t.Errorf("FromTime round trip = %d, want %d", id.Timestamp(), ts.UnixMilli())
	}
	if FromTime(time.Unix(0, 0)) != 0 {
		t.Error("FromTime before epoch should be zero")
	}
}

func TestUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "quoted string", input: `"123"`, want: 123},
		{name: "bare integer", input: `456`, want: 456},
		{name: "null", input: `null`, want: 0},
		{name: "empty string", input: `""`, want: 0},
		{name: "not a number", input: `"abc"`, wantErr: true},
		{name: "negative", input: `-1`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tc.input), &id)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Unmarshal(%s) passed unexpectedly, got %d", tc.input, id)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tc.input, err)
			}
			if id != tc.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tc.input, id, tc.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{ID: 42})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id":"42"}` {
		t.Errorf("Marshal = %s, want {\"id\":\"42\"}", data)
	}
}
