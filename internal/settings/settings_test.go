package settings

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/linksaver/internal/model"
	"github.com/nikbrunner/linksaver/internal/storage"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Set(context.Context, string, []byte) error        { return f.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFileService(t *testing.T) (*Service, *storage.FileKV) {
	t.Helper()
	kv := storage.NewFileKV(filepath.Join(t.TempDir(), "settings.json"))
	return NewService(kv, quietLogger()), kv
}

func ptr[T any](v T) *T { return &v }

func TestLoad_Defaults(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		svc, _ := newFileService(t)
		assert.DeepEqual(t, svc.Load(ctx), model.DefaultSettings())
	})

	t.Run("no store", func(t *testing.T) {
		var buf bytes.Buffer
		svc := NewService(nil, slog.New(slog.NewTextHandler(&buf, nil)))
		assert.DeepEqual(t, svc.Load(ctx), model.DefaultSettings())
		assert.Assert(t, strings.Contains(buf.String(), "using default settings"))
	})

	t.Run("store error", func(t *testing.T) {
		svc := NewService(failingKV{errors.New("boom")}, quietLogger())
		assert.DeepEqual(t, svc.Load(ctx), model.DefaultSettings())
	})

	t.Run("unreadable document", func(t *testing.T) {
		svc, kv := newFileService(t)
		assert.NilError(t, kv.Set(ctx, Key, []byte(`"not an object"`)))
		assert.DeepEqual(t, svc.Load(ctx), model.DefaultSettings())
	})
}

func TestSave_MergesPartial(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFileService(t)

	before := svc.Load(ctx)
	saved, err := svc.Save(ctx, model.SettingsPatch{SortBy: ptr(model.SortByTitle)})
	assert.NilError(t, err)

	want := before
	want.SortBy = model.SortByTitle
	assert.DeepEqual(t, saved, want)

	// A fresh service reads what was persisted.
	reloaded := NewService(svc.kv, quietLogger()).Load(ctx)
	assert.DeepEqual(t, reloaded, want)
}

func TestSave_BuildsOnLastSave(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFileService(t)

	_, err := svc.Save(ctx, model.SettingsPatch{MaxRecentBookmarks: ptr(3)})
	assert.NilError(t, err)
	saved, err := svc.Save(ctx, model.SettingsPatch{ShowBookmarkBar: ptr(false)})
	assert.NilError(t, err)

	assert.Equal(t, saved.MaxRecentBookmarks, 3)
	assert.Equal(t, saved.ShowBookmarkBar, false)
	assert.Equal(t, saved.SortBy, model.SortByDateAdded)
}

func TestSave_MergesIntoStoredDocument(t *testing.T) {
	ctx := context.Background()
	first, kv := newFileService(t)

	_, err := first.Save(ctx, model.SettingsPatch{MaxRecentBookmarks: ptr(25)})
	assert.NilError(t, err)

	// A second service over the same store never loaded anything.
	second := NewService(kv, quietLogger())
	saved, err := second.Save(ctx, model.SettingsPatch{SortBy: ptr(model.SortByTitle)})
	assert.NilError(t, err)
	assert.Equal(t, saved.MaxRecentBookmarks, 25)
	assert.Equal(t, saved.SortBy, model.SortByTitle)

	// The first service sees the second one's write too.
	saved, err = first.Save(ctx, model.SettingsPatch{ShowBookmarkBar: ptr(false)})
	assert.NilError(t, err)
	assert.DeepEqual(t, saved, model.Settings{
		ShowBookmarkBar:    false,
		SortBy:             model.SortByTitle,
		MaxRecentBookmarks: 25,
	})
	assert.DeepEqual(t, NewService(kv, quietLogger()).Load(ctx), saved)
}

func TestSave_ReplacesUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	svc, kv := newFileService(t)
	assert.NilError(t, kv.Set(ctx, Key, []byte(`[1, 2]`)))

	saved, err := svc.Save(ctx, model.SettingsPatch{SortBy: ptr(model.SortByURL)})
	assert.NilError(t, err)

	want := model.DefaultSettings()
	want.SortBy = model.SortByURL
	assert.DeepEqual(t, saved, want)
	assert.DeepEqual(t, svc.Load(ctx), want)
}

func TestSave_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no store", func(t *testing.T) {
		_, err := NewService(nil, quietLogger()).Save(ctx, model.SettingsPatch{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("store error", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		_, err := NewService(failingKV{boom}, quietLogger()).Save(ctx, model.SettingsPatch{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("invalid sort order", func(t *testing.T) {
		svc, kv := newFileService(t)
		_, err := svc.Save(ctx, model.SettingsPatch{SortBy: ptr(model.SortOrder("visits"))})
		assert.ErrorContains(t, err, "invalid sortBy")

		_, ok, err := kv.Get(ctx, Key)
		assert.NilError(t, err)
		assert.Assert(t, !ok, "nothing should be written")
	})

	t.Run("negative max", func(t *testing.T) {
		svc, _ := newFileService(t)
		_, err := svc.Save(ctx, model.SettingsPatch{MaxRecentBookmarks: ptr(-1)})
		assert.ErrorContains(t, err, "must not be negative")
	})
}

func TestInstall(t *testing.T) {
	ctx := context.Background()
	svc, kv := newFileService(t)

	assert.NilError(t, svc.Install(ctx))
	_, ok, err := kv.Get(ctx, Key)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	_, err = svc.Save(ctx, model.SettingsPatch{SortBy: ptr(model.SortByURL)})
	assert.NilError(t, err)

	// A second install keeps the user's choice.
	assert.NilError(t, svc.Install(ctx))
	assert.Equal(t, svc.Load(ctx).SortBy, model.SortByURL)

	assert.ErrorIs(t, NewService(nil, quietLogger()).Install(ctx), ErrUnavailable)
}
