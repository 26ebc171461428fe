package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// snowflakeEpoch is 2025-01-01T00:00:00Z in milliseconds.
const snowflakeEpoch int64 = 1735689600000

var epochOnce sync.Once

// Snowflake generates time-ordered numeric IDs. Stored upload files are
// prefixed with one so names sort by arrival.
type Snowflake struct {
	node *snowflake.Node
}

func generateRandomNodeID() (int64, error) {
	var nodeID int64
	err := binary.Read(rand.Reader, binary.BigEndian, &nodeID)
	if err != nil {
		return 0, err
	}

	return nodeID & (1<<snowflake.NodeBits - 1), nil
}

// NewSnowflake constructs a generator for nodeID. A negative nodeID picks a
// random one, which is fine for a single instance.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 {
		var err error
		if nodeID, err = generateRandomNodeID(); err != nil {
			return nil, err
		}
	}

	epochOnce.Do(func() { snowflake.Epoch = snowflakeEpoch })

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
