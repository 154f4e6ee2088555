package keys

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// For easier testing
var timeNow = time.Now

// base62Charset is the character set for base62 encoding (0-9, a-z, A-Z)
const base62Charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator is the interface for producing unique link keys
type Generator interface {
	NextID() (int64, error)
	Encode(id int64) string
}

// SnowflakeGenerator wraps bwmarrin/snowflake Node for key generation
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a new SnowflakeGenerator
func NewSnowflakeGenerator(machineID int64) (*SnowflakeGenerator, error) {
	// Ensure machineID is in valid range (0-1023)
	if machineID < 0 || machineID > 1023 {
		machineID = 1
	}

	node, err := snowflake.NewNode(machineID)
	if err != nil {
		return nil, err
	}

	return &SnowflakeGenerator{node: node}, nil
}

// NextID generates the next unique ID
func (g *SnowflakeGenerator) NextID() (int64, error) {
	return g.node.Generate().Int64(), nil
}

// Encode converts a numeric ID to a base62 string
func (g *SnowflakeGenerator) Encode(id int64) string {
	if id == 0 {
		return string(base62Charset[0])
	}

	var result []byte
	base := int64(len(base62Charset))

	for id > 0 {
		remainder := id % base
		id = id / base
		result = append([]byte{base62Charset[remainder]}, result...)
	}

	return string(result)
}

// NewKey generates a short link key, falling back to a timestamp-based ID
// when generation fails.
func NewKey(generator Generator) string {
	id, err := generator.NextID()
	if err != nil {
		id = timeNow().UnixNano()
	}

	return generator.Encode(id)
}
