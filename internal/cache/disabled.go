package cache

import (
	"context"
	"time"
)

// Disabled is the store used when caching is turned off by configuration.
// Reads never reach a backend, so neither hits nor misses are counted.
type Disabled struct{}

// NewDisabled returns the no-op store.
func NewDisabled() Disabled { return Disabled{} }

func (Disabled) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Disabled) Set(context.Context, string, []byte, time.Duration) bool { return false }

func (Disabled) MGet(context.Context, []string) map[string][]byte { return map[string][]byte{} }

func (Disabled) Delete(context.Context, string) bool { return false }

func (Disabled) FlushAll(context.Context) bool { return false }

func (Disabled) Stats(context.Context) Stats { return Stats{} }
