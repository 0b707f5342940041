package biz

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/pagination"
)

const aliasPageSize = 50

// AuthorAlias is one name an author publishes under. Albums attach to
// aliases, never directly to authors.
type AuthorAlias struct {
	ID       int64
	Token    string
	Name     string
	AuthorID int64
	Author   *Author
}

// AliasRepo defines the interface for author alias data operations
type AliasRepo interface {
	GetByToken(ctx context.Context, token string) (*AuthorAlias, error)
	GetByName(ctx context.Context, name string) (*AuthorAlias, error)
	List(ctx context.Context, offset, limit int) ([]*AuthorAlias, int64, error)
	// CreateWithAuthor creates a fresh author and an alias of the same
	// name in one transaction. Returns ErrDuplicateName when either
	// name is already taken.
	CreateWithAuthor(ctx context.Context, name string) (*AuthorAlias, error)
	Update(ctx context.Context, alias *AuthorAlias) error
	Delete(ctx context.Context, id int64) error
	CountAlbums(ctx context.Context, aliasID int64) (int64, error)
}

// AliasUseCase contains business logic for alias operations, including
// the identity resolver album creation and import run through.
type AliasUseCase struct {
	repo    AliasRepo
	authors AuthorRepo
	logger  *zap.Logger
}

func NewAliasUseCase(repo AliasRepo, authors AuthorRepo, logger *zap.Logger) *AliasUseCase {
	return &AliasUseCase{repo: repo, authors: authors, logger: logger}
}

// Resolve finds the alias for an author name, creating a fresh author
// and alias when the name is unknown. An empty name resolves to the
// default author. Safe under concurrent creation: a lost race falls
// back to reading the winner's row.
func (uc *AliasUseCase) Resolve(ctx context.Context, name string) (*AuthorAlias, error) {
	if name == "" {
		name = DefaultAuthorName
	}

	for attempt := 0; attempt < 2; attempt++ {
		alias, err := uc.repo.GetByName(ctx, name)
		if err == nil {
			return alias, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
		}

		alias, err = uc.repo.CreateWithAuthor(ctx, name)
		if err == nil {
			uc.logger.Info("author created for new alias", zap.String("name", name))
			return alias, nil
		}
		if !errors.Is(err, ErrDuplicateName) {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
		// someone else created it between the lookup and the insert
	}

	alias, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return alias, nil
}

func (uc *AliasUseCase) ListAliases(ctx context.Context, page int) ([]*AuthorAlias, pagination.Page, error) {
	page = pagination.Clamp(page)
	aliases, total, err := uc.repo.List(ctx, pagination.Offset(page, aliasPageSize), aliasPageSize)
	if err != nil {
		return nil, pagination.Page{}, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return aliases, pagination.Paginate(page, aliasPageSize, total), nil
}

func (uc *AliasUseCase) GetAlias(ctx context.Context, tok string) (*AuthorAlias, error) {
	alias, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, aliasError(err)
	}
	return alias, nil
}

// RenameAlias renames the alias only; the parent author keeps its name.
func (uc *AliasUseCase) RenameAlias(ctx context.Context, tok, name string) (*AuthorAlias, error) {
	alias, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, aliasError(err)
	}

	alias.Name = name
	if err := uc.repo.Update(ctx, alias); err != nil {
		return nil, aliasError(err)
	}
	return alias, nil
}

// DeleteAlias removes the alias. Aliases still referenced by albums
// cannot be deleted, or those albums would lose their identity.
func (uc *AliasUseCase) DeleteAlias(ctx context.Context, tok string) error {
	alias, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return aliasError(err)
	}

	albums, err := uc.repo.CountAlbums(ctx, alias.ID)
	if err != nil {
		return aliasError(err)
	}
	if albums > 0 {
		return apperrors.New(apperrors.ErrAliasHasAlbums)
	}

	if err := uc.repo.Delete(ctx, alias.ID); err != nil {
		return aliasError(err)
	}

	uc.logger.Info("author alias deleted", zap.String("token", tok), zap.String("name", alias.Name))
	return nil
}

// ReassignAlias moves the alias to a new parent author.
func (uc *AliasUseCase) ReassignAlias(ctx context.Context, tok, newAuthorTok string) (*AuthorAlias, error) {
	alias, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, aliasError(err)
	}

	author, err := uc.authors.GetByToken(ctx, newAuthorTok)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrAuthorNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	alias.AuthorID = author.ID
	if err := uc.repo.Update(ctx, alias); err != nil {
		return nil, aliasError(err)
	}

	alias.Author = author
	return alias, nil
}

func aliasError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.New(apperrors.ErrAliasNotFound)
	case errors.Is(err, ErrDuplicateName):
		return apperrors.New(apperrors.ErrConflict, "name already in use")
	}
	return apperrors.Wrap(err, apperrors.ErrInternalServer)
}
