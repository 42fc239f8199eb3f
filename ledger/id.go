package ledger

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSource mints ULID trade IDs stamped with the simulation timestamp,
// not the wall clock, so the trade log sorts by fill time. Entropy is
// monotonic within a millisecond to keep same-step fills in order.
// Each ledger owns its source; concurrent runs never share state.
type idSource struct {
	mono io.Reader
}

func newIDSource() *idSource {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &idSource{mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

func (s *idSource) next(t time.Time) string {
	id, err := ulid.New(ulid.Timestamp(t.UTC()), s.mono)
	if err != nil {
		// Only possible if entropy fails or the timestamp overflows.
		panic(err)
	}
	return id.String()
}
