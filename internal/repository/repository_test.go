package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/recipe-comments-api/internal/database"
	"github.com/recipe-comments-api/internal/mocks"
	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// storeFixture is a set of repositories plus two recipes that exist in them
type storeFixture struct {
	repos   *repository.Repositories
	recipeA int64
	recipeB int64
}

func mockFixture(t *testing.T) storeFixture {
	t.Helper()
	repos, _, _, _ := mocks.NewMockRepositories(1, 2)
	return storeFixture{repos: repos, recipeA: 1, recipeB: 2}
}

// migrationsPath returns the absolute path of the migrations directory
func migrationsPath(t testing.TB) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	return filepath.Join(projectRoot, "migrations")
}

// postgresFixture runs against TEST_DATABASE_URL and is skipped without it
func postgresFixture(t *testing.T) storeFixture {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db := database.Wrap(sqlDB, zerolog.Nop())

	path := migrationsPath(t)
	if err := db.RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.MigrateDown(path); err != nil {
			t.Errorf("MigrateDown failed: %v", err)
		}
		db.Close()
	})

	ctx := context.Background()
	var recipeA, recipeB int64
	if err := db.QueryRowContext(ctx, `INSERT INTO recipes (name) VALUES ('Pancakes') RETURNING id`).Scan(&recipeA); err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	if err := db.QueryRowContext(ctx, `INSERT INTO recipes (name) VALUES ('Waffles') RETURNING id`).Scan(&recipeB); err != nil {
		t.Fatalf("insert recipe: %v", err)
	}

	return storeFixture{repos: repository.New(db), recipeA: recipeA, recipeB: recipeB}
}

func TestCommentStore_Mock(t *testing.T) {
	runCommentStoreTests(t, mockFixture)
}

func TestCommentStore_Postgres(t *testing.T) {
	runCommentStoreTests(t, postgresFixture)
}

func runCommentStoreTests(t *testing.T, newFixture func(t *testing.T) storeFixture) {
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newFixture(t)) })
	t.Run("InvalidParent", func(t *testing.T) { testInvalidParent(t, newFixture(t)) })
	t.Run("UpdateAndDelete", func(t *testing.T) { testUpdateAndDelete(t, newFixture(t)) })
	t.Run("Depth", func(t *testing.T) { testDepth(t, newFixture(t)) })
	t.Run("Votes", func(t *testing.T) { testVotes(t, newFixture(t)) })
	t.Run("ConcurrentVotes", func(t *testing.T) { testConcurrentVotes(t, newFixture(t)) })
	t.Run("RecipeExists", func(t *testing.T) { testRecipeExists(t, newFixture(t)) })
}

func insert(t *testing.T, f storeFixture, recipeID int64, author string, parentID *int64) *models.Comment {
	t.Helper()
	c, err := f.repos.Comment.Insert(context.Background(), &models.NewComment{
		RecipeID:       recipeID,
		AuthorUsername: author,
		ParentID:       parentID,
		Message:        "message from " + author,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return c
}

func testInsertAndGet(t *testing.T, f storeFixture) {
	ctx := context.Background()
	root := insert(t, f, f.recipeA, "alice", nil)
	reply := insert(t, f, f.recipeA, "bob", &root.ID)
	insert(t, f, f.recipeB, "carol", nil)

	if root.ID == reply.ID {
		t.Fatal("ids must be unique")
	}
	if root.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	stored, err := f.repos.Comment.GetByID(ctx, reply.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.ParentID == nil || *stored.ParentID != root.ID {
		t.Errorf("Expected parent %d, got %v", root.ID, stored.ParentID)
	}

	missing, err := f.repos.Comment.GetByID(ctx, 987654)
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing comment, got %v, %v", missing, err)
	}

	list, err := f.repos.Comment.ListByRecipe(ctx, f.recipeA)
	if err != nil {
		t.Fatalf("ListByRecipe failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 comments on recipe A, got %d", len(list))
	}

	count, err := f.repos.Comment.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 comments, got %d", count)
	}
}

func testInvalidParent(t *testing.T, f storeFixture) {
	ctx := context.Background()
	other := insert(t, f, f.recipeB, "alice", nil)

	_, err := f.repos.Comment.Insert(ctx, &models.NewComment{
		RecipeID: f.recipeA, AuthorUsername: "bob", ParentID: &other.ID, Message: "cross",
	})
	if !errors.Is(err, repository.ErrInvalidParent) {
		t.Errorf("Expected ErrInvalidParent, got %v", err)
	}

	missing := int64(987654)
	_, err = f.repos.Comment.Insert(ctx, &models.NewComment{
		RecipeID: f.recipeA, AuthorUsername: "bob", ParentID: &missing, Message: "orphan",
	})
	if !errors.Is(err, repository.ErrInvalidParent) {
		t.Errorf("Expected ErrInvalidParent, got %v", err)
	}
}

func testUpdateAndDelete(t *testing.T, f storeFixture) {
	ctx := context.Background()
	c := insert(t, f, f.recipeA, "alice", nil)

	updated, err := f.repos.Comment.UpdateMessage(ctx, c.ID, "changed")
	if err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}
	if updated.Message != "changed" || updated.EditedAt == nil {
		t.Errorf("Unexpected update result: %+v", updated)
	}

	first, err := f.repos.Comment.SoftDelete(ctx, c.ID)
	if err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	second, err := f.repos.Comment.SoftDelete(ctx, c.ID)
	if err != nil {
		t.Fatalf("second SoftDelete failed: %v", err)
	}
	if first.DeletedAt == nil || !first.DeletedAt.Equal(*second.DeletedAt) {
		t.Errorf("DeletedAt should be set once: %v vs %v", first.DeletedAt, second.DeletedAt)
	}
	if second.Message != "changed" {
		t.Errorf("Soft delete must keep the message, got %q", second.Message)
	}

	if _, err := f.repos.Comment.UpdateMessage(ctx, c.ID, "again"); !errors.Is(err, repository.ErrDeleted) {
		t.Errorf("Expected ErrDeleted, got %v", err)
	}
	if _, err := f.repos.Comment.UpdateMessage(ctx, 987654, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := f.repos.Comment.SoftDelete(ctx, 987654); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = f.repos.Comment.Insert(ctx, &models.NewComment{
		RecipeID: f.recipeA, AuthorUsername: "bob", ParentID: &c.ID, Message: "late",
	})
	if !errors.Is(err, repository.ErrDeleted) {
		t.Errorf("Expected ErrDeleted replying to deleted parent, got %v", err)
	}
}

func testDepth(t *testing.T, f storeFixture) {
	ctx := context.Background()
	root := insert(t, f, f.recipeA, "alice", nil)
	child := insert(t, f, f.recipeA, "bob", &root.ID)
	grandchild := insert(t, f, f.recipeA, "alice", &child.ID)

	for want, c := range []*models.Comment{root, child, grandchild} {
		got, err := f.repos.Comment.Depth(ctx, c.ID)
		if err != nil {
			t.Fatalf("Depth failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected depth %d for comment %d, got %d", want, c.ID, got)
		}
	}

	if _, err := f.repos.Comment.Depth(ctx, 987654); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func testVotes(t *testing.T, f storeFixture) {
	ctx := context.Background()
	c1 := insert(t, f, f.recipeA, "alice", nil)
	c2 := insert(t, f, f.recipeA, "bob", &c1.ID)
	other := insert(t, f, f.recipeB, "carol", nil)

	votes := []struct {
		comment int64
		voter   string
		value   int
	}{
		{c1.ID, "bob", 1},
		{c1.ID, "carol", 1},
		{c1.ID, "dave", -1},
		{c2.ID, "alice", -1},
		{other.ID, "bob", 1},
		{c1.ID, "bob", 1},
	}
	for _, v := range votes {
		if err := f.repos.Vote.Upsert(ctx, v.comment, v.voter, v.value); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	agg, err := f.repos.Vote.AggregateFor(ctx, c1.ID, "bob")
	if err != nil {
		t.Fatalf("AggregateFor failed: %v", err)
	}
	if agg.Score != 1 || agg.MyVote == nil || *agg.MyVote != 1 {
		t.Errorf("Expected score 1 myVote 1, got %d %v", agg.Score, agg.MyVote)
	}

	byRecipe, err := f.repos.Vote.AggregatesByRecipe(ctx, f.recipeA, "alice")
	if err != nil {
		t.Fatalf("AggregatesByRecipe failed: %v", err)
	}
	if byRecipe[c1.ID].Score != 1 || byRecipe[c1.ID].MyVote != nil {
		t.Errorf("Unexpected c1 aggregate: %+v", byRecipe[c1.ID])
	}
	if byRecipe[c2.ID].Score != -1 || byRecipe[c2.ID].MyVote == nil || *byRecipe[c2.ID].MyVote != -1 {
		t.Errorf("Unexpected c2 aggregate: %+v", byRecipe[c2.ID])
	}
	if _, ok := byRecipe[other.ID]; ok {
		t.Error("Aggregates must be scoped to the recipe")
	}

	if err := f.repos.Vote.Upsert(ctx, c1.ID, "dave", models.VoteClear); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	agg, _ = f.repos.Vote.AggregateFor(ctx, c1.ID, "dave")
	if agg.Score != 2 || agg.MyVote != nil {
		t.Errorf("Expected score 2 and no vote after clear, got %d %v", agg.Score, agg.MyVote)
	}

	if err := f.repos.Vote.Upsert(ctx, 987654, "bob", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := f.repos.Vote.Upsert(ctx, 987654, "bob", models.VoteClear); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound clearing on missing comment, got %v", err)
	}
}

func testConcurrentVotes(t *testing.T, f storeFixture) {
	ctx := context.Background()
	c := insert(t, f, f.recipeA, "alice", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := models.VoteUp
			if i%2 == 1 {
				value = models.VoteDown
			}
			if err := f.repos.Vote.Upsert(ctx, c.ID, "bob", value); err != nil {
				t.Errorf("Upsert failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	agg, err := f.repos.Vote.AggregateFor(ctx, c.ID, "bob")
	if err != nil {
		t.Fatalf("AggregateFor failed: %v", err)
	}
	if agg.MyVote == nil || agg.Score != *agg.MyVote {
		t.Errorf("Expected a single row for bob, got score %d myVote %v", agg.Score, agg.MyVote)
	}
}

func testRecipeExists(t *testing.T, f storeFixture) {
	ctx := context.Background()
	exists, err := f.repos.Recipe.Exists(ctx, f.recipeA)
	if err != nil || !exists {
		t.Errorf("Expected recipe to exist, got %v, %v", exists, err)
	}
	exists, err = f.repos.Recipe.Exists(ctx, 987654)
	if err != nil || exists {
		t.Errorf("Expected recipe to be missing, got %v, %v", exists, err)
	}
}
