package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/minipress-io/minipress/internal/model"
	"github.com/minipress-io/minipress/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func createPost(t *testing.T, st *Store, title, content string) model.Post {
	t.Helper()
	id, err := st.NextSequence(context.Background(), store.PostIDSequence)
	if err != nil {
		t.Fatalf("next sequence: %v", err)
	}
	post := model.Post{ID: id, Title: title, Content: content}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestPostLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	post := createPost(t, st, "Test Post", "This is a test post.")
	if post.ID != 1 {
		t.Fatalf("expected first id 1, got %d", post.ID)
	}

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != post.Title || got.Content != post.Content {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	if err := st.DeletePost(context.Background(), post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := st.GetPost(context.Background(), post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeletePost(context.Background(), post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPosts(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	posts, err := st.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}

	createPost(t, st, "One", "First")
	createPost(t, st, "Two", "Second")

	posts, err = st.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
}

func TestUpdatePostPartial(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	post := createPost(t, st, "Old Title", "Old content.")

	newTitle := "New Title"
	updated, err := st.UpdatePost(context.Background(), post.ID, &newTitle, nil)
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if updated.Title != newTitle || updated.Content != "Old content." {
		t.Fatalf("title-only update touched content: %+v", updated)
	}

	newContent := "New content."
	updated, err = st.UpdatePost(context.Background(), post.ID, nil, &newContent)
	if err != nil {
		t.Fatalf("update content: %v", err)
	}
	if updated.Title != newTitle || updated.Content != newContent {
		t.Fatalf("content-only update touched title: %+v", updated)
	}

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got != updated {
		t.Fatalf("stored post %+v != returned %+v", got, updated)
	}
}

func TestUpdatePostNotFound(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	title := "Ghost"
	if _, err := st.UpdatePost(context.Background(), 99999999, &title, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The miss must not have created anything.
	posts, err := st.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("update of missing post created rows: %d", len(posts))
	}
}

func TestNextSequence(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	for want := int64(1); want <= 5; want++ {
		got, err := st.NextSequence(context.Background(), store.PostIDSequence)
		if err != nil {
			t.Fatalf("next sequence: %v", err)
		}
		if got != want {
			t.Fatalf("expected seq %d, got %d", want, got)
		}
	}
}

func TestNextSequenceUnknownCounter(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	if _, err := st.NextSequence(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNextSequenceConcurrent(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	const n = 50
	ids := make([]int64, n)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := st.NextSequence(context.Background(), store.PostIDSequence)
			if err != nil {
				errs <- err
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("next sequence: %v", err)
	}

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if ids[0] != 1 || ids[n-1] != n {
		t.Fatalf("expected ids 1..%d, got range %d..%d", n, ids[0], ids[n-1])
	}
}

func TestSequenceNotReusedAfterDelete(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	first := createPost(t, st, "First", "a")
	if err := st.DeletePost(context.Background(), first.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	second := createPost(t, st, "Second", "b")
	if second.ID != first.ID+1 {
		t.Fatalf("expected id %d after delete, got %d", first.ID+1, second.ID)
	}
}
