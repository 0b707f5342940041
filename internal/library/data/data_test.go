package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/damianb/minori/internal/library/biz"
	"github.com/damianb/minori/internal/pkg/token"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "minori.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func seedAlias(t *testing.T, db *gorm.DB, name string) *biz.AuthorAlias {
	t.Helper()

	alias, err := NewAliasRepo(db).CreateWithAuthor(context.Background(), name)
	require.NoError(t, err)
	return alias
}

func seedAlbum(t *testing.T, db *gorm.DB, aliasID int64, title string, createdAt time.Time) *biz.Album {
	t.Helper()

	album := &biz.Album{
		Token:         token.New(),
		Disabled:      true,
		Title:         title,
		LegacyAuthor:  "someone",
		AuthorAliasID: aliasID,
		CreatedAt:     createdAt,
	}
	require.NoError(t, NewAlbumRepo(db).Create(context.Background(), album))
	return album
}

func TestAliasCreateWithAuthor(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewAliasRepo(db)

	alias, err := repo.CreateWithAuthor(ctx, "Some One")
	require.NoError(t, err)
	assert.NotZero(t, alias.ID)
	assert.Equal(t, "Some One", alias.Name)
	require.NotNil(t, alias.Author)
	assert.Equal(t, "Some One", alias.Author.Name)
	assert.Equal(t, alias.Author.ID, alias.AuthorID)
	_, err = token.Decode(alias.Token)
	assert.NoError(t, err)
	_, err = token.Decode(alias.Author.Token)
	assert.NoError(t, err)

	_, err = repo.CreateWithAuthor(ctx, "Some One")
	assert.ErrorIs(t, err, biz.ErrDuplicateName)
}

func TestAliasGetByName(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewAliasRepo(db)
	seeded := seedAlias(t, db, "Pen Name")

	alias, err := repo.GetByName(ctx, "Pen Name")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, alias.ID)
	require.NotNil(t, alias.Author)
	assert.Equal(t, "Pen Name", alias.Author.Name)

	_, err = repo.GetByName(ctx, "No Such Name")
	assert.ErrorIs(t, err, biz.ErrNotFound)
}

func TestAliasListOrdersByNameDescending(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewAliasRepo(db)
	seedAlias(t, db, "Alpha")
	seedAlias(t, db, "Zeta")
	seedAlias(t, db, "Mid")

	aliases, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, aliases, 3)
	assert.Equal(t, "Zeta", aliases[0].Name)
	assert.Equal(t, "Mid", aliases[1].Name)
	assert.Equal(t, "Alpha", aliases[2].Name)
}

func TestAliasCountAlbums(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewAliasRepo(db)
	alias := seedAlias(t, db, "Busy Artist")
	other := seedAlias(t, db, "Idle Artist")
	seedAlbum(t, db, alias.ID, "First", time.Now())
	seedAlbum(t, db, alias.ID, "Second", time.Now())

	count, err := repo.CountAlbums(ctx, alias.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountAlbums(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestAuthorGetByTokenPreloadsAliases(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Loaded Author")
	repo := NewAuthorRepo(db)

	author, err := repo.GetByToken(ctx, alias.Author.Token)
	require.NoError(t, err)
	assert.Equal(t, "Loaded Author", author.Name)
	require.Len(t, author.Aliases, 1)
	assert.Equal(t, alias.ID, author.Aliases[0].ID)

	_, err = repo.GetByToken(ctx, token.New())
	assert.ErrorIs(t, err, biz.ErrNotFound)
}

func TestAuthorRenameWithAliasMatchesOldName(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Old Name")
	require.NoError(t, db.Create(&AuthorAliasPO{
		Token:    token.New(),
		Name:     "Pen Name",
		AuthorID: alias.AuthorID,
	}).Error)

	repo := NewAuthorRepo(db)
	require.NoError(t, repo.RenameWithAlias(ctx, alias.AuthorID, "Old Name", "New Name"))

	author, err := repo.GetByToken(ctx, alias.Author.Token)
	require.NoError(t, err)
	assert.Equal(t, "New Name", author.Name)

	names := make(map[string]bool)
	for _, a := range author.Aliases {
		names[a.Name] = true
	}
	assert.True(t, names["New Name"], "alias carrying the old author name follows the rename")
	assert.True(t, names["Pen Name"], "unrelated alias keeps its name")
	assert.False(t, names["Old Name"])
}

func TestAuthorMergeAliases(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	target := seedAlias(t, db, "Target Author")
	consumed := seedAlias(t, db, "Consumed Author")
	repo := NewAuthorRepo(db)

	require.NoError(t, repo.MergeAliases(ctx, target.AuthorID, consumed.AuthorID, true))

	author, err := repo.GetByToken(ctx, target.Author.Token)
	require.NoError(t, err)
	require.Len(t, author.Aliases, 2)

	_, err = repo.GetByToken(ctx, consumed.Author.Token)
	assert.ErrorIs(t, err, biz.ErrNotFound)
}

func TestAuthorMergeAliasesPreservesConsumed(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	target := seedAlias(t, db, "Keeper")
	consumed := seedAlias(t, db, "Emptied")
	repo := NewAuthorRepo(db)

	require.NoError(t, repo.MergeAliases(ctx, target.AuthorID, consumed.AuthorID, false))

	author, err := repo.GetByToken(ctx, consumed.Author.Token)
	require.NoError(t, err)
	assert.Empty(t, author.Aliases)
}

func TestAlbumListFiltersDisabledAndOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Album Artist")
	repo := NewAlbumRepo(db)

	base := time.Now().Add(-time.Hour)
	older := seedAlbum(t, db, alias.ID, "Older", base)
	newer := seedAlbum(t, db, alias.ID, "Newer", base.Add(time.Minute))
	hidden := seedAlbum(t, db, alias.ID, "Hidden", base.Add(2*time.Minute))

	// enable all but one
	for _, album := range []*biz.Album{older, newer} {
		album.Disabled = false
		require.NoError(t, repo.Update(ctx, album))
	}

	albums, total, err := repo.List(ctx, 0, 10, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, albums, 2)
	assert.Equal(t, "Newer", albums[0].Title)
	assert.Equal(t, "Older", albums[1].Title)

	albums, total, err = repo.List(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, hidden.Token, albums[0].Token)
}

func TestAlbumListByAliasIDs(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	mine := seedAlias(t, db, "Mine")
	theirs := seedAlias(t, db, "Theirs")
	repo := NewAlbumRepo(db)
	seedAlbum(t, db, mine.ID, "Mine One", time.Now())
	seedAlbum(t, db, theirs.ID, "Theirs One", time.Now())

	albums, total, err := repo.ListByAliasIDs(ctx, []int64{mine.ID}, 0, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, albums, 1)
	assert.Equal(t, "Mine One", albums[0].Title)

	albums, total, err = repo.ListByAliasIDs(ctx, nil, 0, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, albums)
}

func TestAlbumUpdatePersistsDisabledFalse(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Toggler")
	repo := NewAlbumRepo(db)
	album := seedAlbum(t, db, alias.ID, "Toggled", time.Now())

	album.Disabled = false
	require.NoError(t, repo.Update(ctx, album))

	got, err := repo.GetByToken(ctx, album.Token)
	require.NoError(t, err)
	assert.False(t, got.Disabled)
}

func TestAlbumSetCover(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Cover Artist")
	albumRepo := NewAlbumRepo(db)
	imageRepo := NewImageRepo(db)
	album := seedAlbum(t, db, alias.ID, "Covered", time.Now())

	img := &biz.Image{Token: token.New(), AlbumID: album.ID}
	require.NoError(t, imageRepo.Create(ctx, img))

	require.NoError(t, albumRepo.SetCover(ctx, album.ID, &img.ID))

	got, err := albumRepo.GetByToken(ctx, album.Token)
	require.NoError(t, err)
	require.NotNil(t, got.CoverID)
	assert.Equal(t, img.ID, *got.CoverID)
	require.NotNil(t, got.Cover)
	assert.Equal(t, img.Token, got.Cover.Token)

	require.NoError(t, albumRepo.SetCover(ctx, album.ID, nil))
	got, err = albumRepo.GetByToken(ctx, album.Token)
	require.NoError(t, err)
	assert.Nil(t, got.CoverID)
}

func TestAlbumDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Doomed Artist")
	albumRepo := NewAlbumRepo(db)
	imageRepo := NewImageRepo(db)
	album := seedAlbum(t, db, alias.ID, "Doomed", time.Now())

	require.NoError(t, imageRepo.Create(ctx, &biz.Image{Token: token.New(), AlbumID: album.ID}))
	require.NoError(t, imageRepo.Create(ctx, &biz.Image{Token: token.New(), AlbumID: album.ID}))

	tag := &TagPO{Token: token.New(), Name: "keeper"}
	require.NoError(t, db.Create(tag).Error)
	require.NoError(t, db.Model(&AlbumPO{ID: album.ID}).Association("Tags").Append(tag))

	require.NoError(t, albumRepo.Delete(ctx, album.ID))

	_, err := albumRepo.GetByToken(ctx, album.Token)
	assert.ErrorIs(t, err, biz.ErrNotFound)

	images, err := imageRepo.ListByAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	var tags int64
	require.NoError(t, db.Model(&TagPO{}).Count(&tags).Error)
	assert.EqualValues(t, 1, tags, "tags outlive the albums that carried them")
}

func TestImageListReadingOrder(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Page Artist")
	repo := NewImageRepo(db)
	album := seedAlbum(t, db, alias.ID, "Paged", time.Now())

	name := func(s string) *string { return &s }
	for _, img := range []*biz.Image{
		{Token: token.New(), AlbumID: album.ID, OrderKey: 2, OriginalFilename: name("a.png")},
		{Token: token.New(), AlbumID: album.ID, OrderKey: 1, OriginalFilename: name("z.png")},
		{Token: token.New(), AlbumID: album.ID, OrderKey: 1, OriginalFilename: name("b.png")},
	} {
		require.NoError(t, repo.Create(ctx, img))
	}

	images, err := repo.ListByAlbum(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, "b.png", *images[0].OriginalFilename)
	assert.Equal(t, "z.png", *images[1].OriginalFilename)
	assert.Equal(t, "a.png", *images[2].OriginalFilename)
}

func TestImageCreateBatchBackfillsIDs(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Batch Artist")
	repo := NewImageRepo(db)
	album := seedAlbum(t, db, alias.ID, "Batched", time.Now())

	images := []*biz.Image{
		{Token: token.New(), AlbumID: album.ID},
		{Token: token.New(), AlbumID: album.ID},
	}
	require.NoError(t, repo.CreateBatch(ctx, images))
	for _, img := range images {
		assert.NotZero(t, img.ID)
	}

	require.NoError(t, repo.CreateBatch(ctx, nil))
}

func TestImageGetByTokenScopedToAlbum(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	alias := seedAlias(t, db, "Scoped Artist")
	repo := NewImageRepo(db)
	album := seedAlbum(t, db, alias.ID, "Scoped", time.Now())
	other := seedAlbum(t, db, alias.ID, "Other", time.Now())

	img := &biz.Image{Token: token.New(), AlbumID: album.ID}
	require.NoError(t, repo.Create(ctx, img))

	got, err := repo.GetByToken(ctx, album.ID, img.Token)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	_, err = repo.GetByToken(ctx, other.ID, img.Token)
	assert.ErrorIs(t, err, biz.ErrNotFound)
}
