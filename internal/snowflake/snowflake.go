package snowflake

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// ID is a platform snowflake. The zero value means absent/unset.
type ID uint64

type Parts struct {
	Timestamp int64
	WorkerID  int64
	Increment int64
}

const (
	timestampLength int64 = 42                                    // 42
	timestampPos          = 64 - timestampLength                  // 22
	workerLength    int64 = 10                                    // 10
	workerPos             = timestampPos - workerLength           // 12
	incrementLength       = 64 - (timestampLength + workerLength) // 12

	// Epoch is the platform epoch in unix milliseconds (2015-01-01T00:00:00Z).
	Epoch int64 = 1420070400000
)

var (
	maxWorkerValue    = int64(1)<<workerLength - 1
	maxIncrementValue = int64(1)<<incrementLength - 1

	lastIncrement, lastTimestamp int64
	mutex                        sync.Mutex

	workerID    int64 = 0
	hasWorkerID       = false
)

// Setup sets the worker ID used by Generate. It can only be called once.
func Setup(id int64) error {
	mutex.Lock()
	defer mutex.Unlock()

	if id < 0 || id > maxWorkerValue {
		return fmt.Errorf("worker ID value must be between 0 and [%d]", maxWorkerValue)
	} else if !hasWorkerID {
		workerID = id
		hasWorkerID = true
		return nil
	}

	return fmt.Errorf("worker ID for snowflake generator has been already set")
}

// Generate creates a new locally unique ID. It is used for nonces of
// messages synthesized before a create call, never for entity identities.
func Generate() (ID, error) {
	mutex.Lock()
	defer mutex.Unlock()

	timestamp := time.Now().UnixMilli() - Epoch
	if timestamp == lastTimestamp {
		lastIncrement += 1
		if lastIncrement > maxIncrementValue {
			return 0, fmt.Errorf("increment overflow after increment reached %d", lastIncrement)
		}
	} else {
		lastIncrement = 0
		lastTimestamp = timestamp
	}

	return ID(timestamp<<timestampPos | workerID<<workerPos | lastIncrement), nil
}

func Extract(id ID) Parts {
	return Parts{
		Timestamp: int64(id >> timestampPos),
		WorkerID:  int64(id>>workerPos) & maxWorkerValue,
		Increment: int64(id) & maxIncrementValue,
	}
}

// FromTime returns the smallest ID that could have been created at t.
// Useful as a pagination bound.
func FromTime(t time.Time) ID {
	ms := t.UnixMilli() - Epoch
	if ms < 0 {
		return 0
	}
	return ID(ms << timestampPos)
}

// Parse reads a decimal ID. The empty string parses to 0.
func Parse(s string) (ID, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return ID(v), nil
}

func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool {
	return id == 0
}

// Timestamp returns the creation time in unix milliseconds.
func (id ID) Timestamp() int64 {
	return int64(id>>timestampPos) + Epoch
}

func (id ID) Time() time.Time {
	return time.UnixMilli(id.Timestamp()).UTC()
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Less orders IDs by creation time.
func Less(a, b ID) bool {
	return a < b
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// UnmarshalJSON accepts a numeric string, a bare integer or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid snowflake %s: %w", data, err)
		}
		v, err := Parse(s)
		if err != nil {
			return err
		}
		*id = v
		return nil
	}

	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snowflake %s: %w", data, err)
	}
	*id = ID(v)
	return nil
}

// Strings formats ids keeping their order.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
