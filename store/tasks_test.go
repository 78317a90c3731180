package store

import (
	"sync"
	"testing"
	"time"

	"github.com/cling-godaddy/muse-sub001/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()
	s, err := New(Options{TTL: time.Hour, CleanupInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNew_RejectsNegativeOptions(t *testing.T) {
	_, err := New(Options{TTL: -1})
	assert.Error(t, err)
	_, err = New(Options{CleanupInterval: -1})
	assert.Error(t, err)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	msg := a2a.NewMessage(a2a.MessageRoleUser, a2a.NewTextPart("build a site"))
	task := s.Create(CreateParams{ContextID: "ctx-1", InitialMessage: &msg, Metadata: map[string]any{"skillId": "generate_landing"}})

	require.NotEmpty(t, task.ID)
	assert.Equal(t, "ctx-1", task.ContextID)
	assert.Equal(t, a2a.TaskStateSubmitted, task.Status.State)
	assert.Equal(t, 1, task.Version)
	require.Len(t, task.History, 1)

	got := s.Get(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)

	assert.Nil(t, s.Get("missing"))
}

func TestCreate_GeneratesContextID(t *testing.T) {
	s := newTestStore(t)
	task := s.Create(CreateParams{})
	assert.NotEmpty(t, task.ContextID)
}

func TestApply(t *testing.T) {
	s := newTestStore(t)
	task := s.Create(CreateParams{ContextID: "ctx-1"})

	msg := a2a.NewMessage(a2a.MessageRoleAgent, a2a.NewTextPart("working on it"))
	updated := s.Apply(task.ID, Update{State: a2a.TaskStateWorking, Message: &msg})
	require.NotNil(t, updated)
	assert.Equal(t, a2a.TaskStateWorking, updated.Status.State)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.History, 1)

	failed := s.Apply(task.ID, Update{State: a2a.TaskStateFailed, Error: &a2a.TaskError{Message: "boom"}})
	require.NotNil(t, failed)
	assert.Equal(t, 3, failed.Version)
	require.NotNil(t, failed.Status.Error)
	assert.Equal(t, "boom", failed.Status.Error.Message)

	assert.Nil(t, s.Apply("missing", Update{State: a2a.TaskStateWorking}))
}

func TestAddArtifact_ReplacesById(t *testing.T) {
	s := newTestStore(t)
	task := s.Create(CreateParams{})

	first := a2a.Artifact{ArtifactID: "art-1", Name: "sections", Metadata: map[string]any{"rev": 1}}
	updated := s.AddArtifact(task.ID, first)
	require.Len(t, updated.Artifacts, 1)

	second := a2a.Artifact{ArtifactID: "art-1", Name: "sections", Metadata: map[string]any{"rev": 2}}
	updated = s.AddArtifact(task.ID, second)
	require.Len(t, updated.Artifacts, 1)
	assert.Equal(t, 2, updated.Artifacts[0].Metadata["rev"])

	other := a2a.Artifact{ArtifactID: "art-2", Name: "theme"}
	updated = s.AddArtifact(task.ID, other)
	assert.Len(t, updated.Artifacts, 2)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	task := s.Create(CreateParams{})
	s.AddArtifact(task.ID, a2a.Artifact{ArtifactID: "art-1", Name: "theme"})

	got := s.Get(task.ID)
	got.Artifacts[0].Name = "mutated"

	again := s.Get(task.ID)
	assert.Equal(t, "theme", again.Artifacts[0].Name)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	t1 := s.Create(CreateParams{ContextID: "ctx-a"})
	t2 := s.Create(CreateParams{ContextID: "ctx-b"})
	t3 := s.Create(CreateParams{ContextID: "ctx-a"})
	s.Apply(t2.ID, Update{State: a2a.TaskStateCompleted})

	all := s.List(Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, t1.ID, all[0].ID, "insertion order preserved")

	byCtx := s.List(Filter{ContextID: "ctx-a"})
	require.Len(t, byCtx, 2)
	assert.Equal(t, t3.ID, byCtx[1].ID)

	byState := s.List(Filter{States: []a2a.TaskState{a2a.TaskStateCompleted}})
	require.Len(t, byState, 1)
	assert.Equal(t, t2.ID, byState[0].ID)

	limited := s.List(Filter{Limit: 2})
	assert.Len(t, limited, 2)
}

func TestEvictExpired(t *testing.T) {
	s, err := New(Options{TTL: 50 * time.Millisecond, CleanupInterval: time.Hour})
	require.NoError(t, err)
	defer s.Close()

	old := s.Create(CreateParams{})
	time.Sleep(60 * time.Millisecond)
	fresh := s.Create(CreateParams{})

	s.evictExpired()

	assert.Nil(t, s.Get(old.ID))
	assert.NotNil(t, s.Get(fresh.ID))
	assert.Equal(t, 1, s.Len())

	remaining := s.List(Filter{})
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t)
	task := s.Create(CreateParams{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Apply(task.ID, Update{State: a2a.TaskStateWorking})
		}()
		go func() {
			defer wg.Done()
			s.Get(task.ID)
			s.List(Filter{})
		}()
	}
	wg.Wait()

	got := s.Get(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, a2a.TaskStateWorking, got.Status.State)
}
