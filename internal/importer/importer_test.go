package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/userdesk/internal/users"
)

type stubStore struct {
	batches [][]users.User
	err     error
}

func (s *stubStore) BulkCreate(ctx context.Context, batch []users.User) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, batch)
	return int64(len(batch)), nil
}

func importCSV(t *testing.T, store *stubStore, fileName, body string) (*Result, error) {
	t.Helper()
	imp := New(store)
	return imp.Import(context.Background(), fileName, int64(len(body)), strings.NewReader(body))
}

func TestImport_AcceptsOnlyRowsWithName(t *testing.T) {
	store := &stubStore{}
	body := "Name,Email,Address,About,Number\n" +
		"Alice,alice@example.com,Berlin,Engineer,111\n" +
		",missing@example.com,Nowhere,Skipped,222\n" +
		"   ,blank@example.com,Nowhere,Skipped,333\n" +
		"Bob,,,,\n"

	res, err := importCSV(t, store, "people.csv", body)
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, store.batches, 1)

	batch := store.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "Alice", batch[0].Name)
	assert.Equal(t, "Bob", batch[1].Name)
	assert.Empty(t, batch[1].Email)
}

func TestImport_AllBlankNames(t *testing.T) {
	store := &stubStore{}
	body := "Name,Email\n,one@example.com\n   ,two@example.com\n"

	_, err := importCSV(t, store, "blank.csv", body)
	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.Empty(t, store.batches, "no writes on empty import result")
}

func TestImport_WrongExtensionRejectedBeforeParsing(t *testing.T) {
	store := &stubStore{}
	body := "Name\nAlice\n"

	_, err := importCSV(t, store, "people.txt", body)
	assert.ErrorIs(t, err, ErrNotCSV)
	assert.Empty(t, store.batches)
}

func TestImport_ExtensionCaseInsensitive(t *testing.T) {
	store := &stubStore{}
	res, err := importCSV(t, store, "PEOPLE.CSV", "Name\nAlice\n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Inserted)
}

func TestImport_EmptyFile(t *testing.T) {
	store := &stubStore{}
	imp := New(store)

	_, err := imp.Import(context.Background(), "people.csv", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = imp.Import(context.Background(), "people.csv", 10, nil)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestImport_ColumnsInAnyOrder(t *testing.T) {
	store := &stubStore{}
	body := "Number,About,Name,Email\n42,Writer,Carol,carol@example.com\n"

	res, err := importCSV(t, store, "shuffled.csv", body)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Inserted)

	u := store.batches[0][0]
	assert.Equal(t, "Carol", u.Name)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.Equal(t, "Writer", u.About)
	assert.Equal(t, "42", u.Number)
	assert.Empty(t, u.Address, "missing column stays unset")
}

func TestImport_ExtraAndUnknownColumnsIgnored(t *testing.T) {
	store := &stubStore{}
	body := "Name,Favorite Color,Email\nDave,teal,dave@example.com\n"

	res, err := importCSV(t, store, "extra.csv", body)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, "dave@example.com", store.batches[0][0].Email)
}

func TestImport_HeaderMatchIsCaseSensitive(t *testing.T) {
	store := &stubStore{}
	body := "name,email\nEve,eve@example.com\n"

	_, err := importCSV(t, store, "lower.csv", body)
	assert.ErrorIs(t, err, ErrNoValidRows, "lowercase headers are not recognized")
}

func TestImport_DuplicateHeaderLastOccurrenceWins(t *testing.T) {
	store := &stubStore{}
	body := "Name,Name,Email\nIgnored,Kept,dup@example.com\n"

	res, err := importCSV(t, store, "dup.csv", body)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, "Kept", store.batches[0][0].Name)
}

func TestImport_TrimsEveryField(t *testing.T) {
	store := &stubStore{}
	body := "Name,Email,Address\n  Frank  ,  frank@example.com ,  Lisbon \n"

	_, err := importCSV(t, store, "spaces.csv", body)
	require.NoError(t, err)

	u := store.batches[0][0]
	assert.Equal(t, "Frank", u.Name)
	assert.Equal(t, "frank@example.com", u.Email)
	assert.Equal(t, "Lisbon", u.Address)
}

func TestImport_SkipsBOM(t *testing.T) {
	store := &stubStore{}
	body := "\xEF\xBB\xBFName,Email\nGrace,grace@example.com\n"

	res, err := importCSV(t, store, "bom.csv", body)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, "Grace", store.batches[0][0].Name)
}

func TestImport_BatchSharesTimestamp(t *testing.T) {
	store := &stubStore{}
	body := "Name\nHeidi\nIvan\nJudy\n"

	_, err := importCSV(t, store, "batch.csv", body)
	require.NoError(t, err)

	batch := store.batches[0]
	require.Len(t, batch, 3)
	for _, u := range batch {
		assert.Equal(t, batch[0].CreatedAt, u.CreatedAt)
		assert.False(t, u.CreatedAt.IsZero())
	}
}

func TestImport_StoreFailurePropagates(t *testing.T) {
	store := &stubStore{err: context.DeadlineExceeded}

	res, err := importCSV(t, store, "fail.csv", "Name\nKim\n")
	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, store.batches)
}

func TestImport_CancelledContextAbortsBeforeInsert(t *testing.T) {
	store := &stubStore{}
	imp := New(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := "Name\nLara\n"
	_, err := imp.Import(ctx, "cancel.csv", int64(len(body)), strings.NewReader(body))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.batches, "no insert after cancellation")
}

func TestImport_CRLFTemplateShape(t *testing.T) {
	store := &stubStore{}
	body := "Name,Email,Address,About,Number\r\nRahim Uddin,rahim@example.com,Dhaka,Developer,01710000001\r\n"

	res, err := importCSV(t, store, "users-template.csv", body)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Inserted)

	u := store.batches[0][0]
	assert.Equal(t, "Rahim Uddin", u.Name)
	assert.Equal(t, "rahim@example.com", u.Email)
	assert.Equal(t, "Dhaka", u.Address)
	assert.Equal(t, "Developer", u.About)
	assert.Equal(t, "01710000001", u.Number)
}
