package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"tmdbetl/internal/storage"
)

func openTestRepo(t *testing.T) storage.Repository {
	t.Helper()

	repo, err := New(context.Background(), storage.Config{
		Kind: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo
}

func moviesSpec() storage.TableSpec {
	return storage.TableSpec{
		Name:       "movies",
		PrimaryKey: "id",
		Columns: []storage.ColumnSpec{
			{Name: "id", Type: "bigint"},
			{Name: "title", Type: "text"},
			{Name: "vote_average", Type: "double"},
			{Name: "release_date", Type: "date", Nullable: true},
		},
	}
}

var moviesColumns = []string{"id", "title", "vote_average", "release_date"}

func TestReplaceTable_RoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rows := [][]any{
		{int64(1), "The Shawshank Redemption", 8.7, "1994-09-23"},
		{int64(2), "Untitled", 5.0, nil},
	}
	if err := repo.ReplaceTable(ctx, moviesSpec(), moviesColumns, rows); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}

	res, err := repo.Select(ctx, `SELECT id, title, release_date FROM movies ORDER BY id`)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(res.Rows))
	}
	if res.Rows[0][1] != "The Shawshank Redemption" {
		t.Errorf("title=%v", res.Rows[0][1])
	}
	if res.Rows[1][2] != nil {
		t.Errorf("release_date=%v, want NULL", res.Rows[1][2])
	}
}

func TestReplaceTable_OverwritesExisting(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := [][]any{{int64(1), "Old", 1.0, nil}, {int64(2), "Older", 2.0, nil}}
	if err := repo.ReplaceTable(ctx, moviesSpec(), moviesColumns, first); err != nil {
		t.Fatalf("ReplaceTable #1: %v", err)
	}

	second := [][]any{{int64(9), "New", 9.0, "2002-06-15"}}
	if err := repo.ReplaceTable(ctx, moviesSpec(), moviesColumns, second); err != nil {
		t.Fatalf("ReplaceTable #2: %v", err)
	}

	res, err := repo.Select(ctx, `SELECT id FROM movies`)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows=%d, want 1 after replace", len(res.Rows))
	}
	if res.Rows[0][0] != int64(9) {
		t.Errorf("id=%v, want 9", res.Rows[0][0])
	}
}

func TestReplaceTable_EmptyRowsLeavesEmptyTable(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceTable(ctx, moviesSpec(), moviesColumns, nil); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	res, err := repo.Select(ctx, `SELECT COUNT(*) FROM movies`)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res.Rows[0][0] != int64(0) {
		t.Fatalf("count=%v, want 0", res.Rows[0][0])
	}
}

func TestReplaceTable_ManyRowsCrossChunkBoundary(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	var rows [][]any
	for i := 0; i < insertChunk*2+7; i++ {
		rows = append(rows, []any{int64(i), "m", 0.0, nil})
	}
	if err := repo.ReplaceTable(ctx, moviesSpec(), moviesColumns, rows); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	res, err := repo.Select(ctx, `SELECT COUNT(*) FROM movies`)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res.Rows[0][0] != int64(insertChunk*2+7) {
		t.Fatalf("count=%v, want %d", res.Rows[0][0], insertChunk*2+7)
	}
}

func TestSelect_BadSQL(t *testing.T) {
	repo := openTestRepo(t)

	if _, err := repo.Select(context.Background(), `SELECT FROM nowhere`); err == nil {
		t.Fatal("want error for malformed SQL")
	}
}

func TestBuildCreateTableSQL_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    storage.TableSpec
		want    []string
		wantErr bool
	}{
		{
			name: "movies",
			spec: moviesSpec(),
			want: []string{
				`CREATE TABLE "movies"`,
				`"id" INTEGER PRIMARY KEY NOT NULL`,
				`"vote_average" REAL NOT NULL`,
				`"release_date" DATE`,
			},
		},
		{
			name:    "empty_name",
			spec:    storage.TableSpec{Name: " "},
			wantErr: true,
		},
		{
			name: "unknown_type",
			spec: storage.TableSpec{
				Name:    "x",
				Columns: []storage.ColumnSpec{{Name: "c", Type: "uuid"}},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := buildCreateTableSQL(tc.spec)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("DDL missing %q:\n%s", w, got)
				}
			}
		})
	}
}
