package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadinessResolvesOnce(t *testing.T) {
	var calls int32
	r := NewReadiness(func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.False(t, r.Ready())
	r.Start(context.Background())
	r.Start(context.Background())

	assert.NoError(t, r.Wait(context.Background()))
	assert.NoError(t, r.Wait(context.Background()))
	assert.True(t, r.Ready())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReadinessStopsAtFirstError(t *testing.T) {
	var second bool
	r := NewReadiness(
		func(context.Context) error { return fmt.Errorf("no fonts") },
		func(context.Context) error { second = true; return nil },
	)

	assert.EqualError(t, r.Wait(context.Background()), "no fonts")
	assert.False(t, r.Ready())
	assert.False(t, second)
}

func TestReadinessWaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	r := NewReadiness(func(context.Context) error {
		<-block
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}

func TestStage(t *testing.T) {
	assert.Equal(t, "uploading_document", StageUploadingDocument.String())
	assert.True(t, StagePersisting.Fatal())
	assert.False(t, StageSyncing.Fatal())

	b, err := StageComplete.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "complete", string(b))
}

func TestParseOrphanPolicy(t *testing.T) {
	p, err := ParseOrphanPolicy("delete")
	assert.NoError(t, err)
	assert.Equal(t, OrphanDelete, p)

	p, err = ParseOrphanPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, OrphanKeep, p)

	_, err = ParseOrphanPolicy("archive")
	assert.Error(t, err)
}
