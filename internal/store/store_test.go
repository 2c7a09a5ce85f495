package store

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableStore returns a Store whose client cannot connect, so every
// read fails with a transport error rather than redis.Nil.
func unreachableStore() *Store {
	return &Store{Client: redis.NewClient(&redis.Options{
		Addr:       "127.0.0.1:1",
		MaxRetries: -1,
	})}
}

func TestGetRegion_ErrorFallsBackToDefaultAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	s := unreachableStore()
	defer s.Close()

	assert.Equal(t, DefaultRegion, s.GetRegion(context.Background()))
	assert.Contains(t, buf.String(), "read region preference")
}

func TestGetQueue_ErrorFallsBackToDefaultAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	s := unreachableStore()
	defer s.Close()

	assert.Equal(t, DefaultQueue, s.GetQueue(context.Background()))
	assert.Contains(t, buf.String(), "read queue preference")
}
