package biz

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/pagination"
)

// DefaultAuthorName is assigned when no author is supplied.
const DefaultAuthorName = "Unknown author"

const authorPageSize = 50

// Author is the canonical identity a set of aliases roll up to.
type Author struct {
	ID      int64
	Token   string
	Name    string
	Aliases []*AuthorAlias
}

// AuthorRepo defines the interface for author data operations
type AuthorRepo interface {
	GetByToken(ctx context.Context, token string) (*Author, error)
	List(ctx context.Context, offset, limit int) ([]*Author, int64, error)
	Update(ctx context.Context, author *Author) error
	// RenameWithAlias renames the author and, in the same transaction,
	// any alias of theirs that carried the author's previous name.
	RenameWithAlias(ctx context.Context, authorID int64, oldName, newName string) error
	Delete(ctx context.Context, id int64) error
	// MergeAliases moves every alias of the consumed author to the
	// target author, optionally deleting the consumed author after.
	MergeAliases(ctx context.Context, targetID, consumedID int64, deleteConsumed bool) error
}

// AuthorUseCase contains business logic for author operations
type AuthorUseCase struct {
	repo   AuthorRepo
	logger *zap.Logger
}

func NewAuthorUseCase(repo AuthorRepo, logger *zap.Logger) *AuthorUseCase {
	return &AuthorUseCase{repo: repo, logger: logger}
}

func (uc *AuthorUseCase) ListAuthors(ctx context.Context, page int) ([]*Author, pagination.Page, error) {
	page = pagination.Clamp(page)
	authors, total, err := uc.repo.List(ctx, pagination.Offset(page, authorPageSize), authorPageSize)
	if err != nil {
		return nil, pagination.Page{}, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return authors, pagination.Paginate(page, authorPageSize, total), nil
}

func (uc *AuthorUseCase) GetAuthor(ctx context.Context, tok string) (*Author, error) {
	author, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, authorError(err)
	}
	return author, nil
}

// RenameAuthor changes the author's name. When cascadeAlias is set, an
// alias that carried the author's previous name is renamed with it so
// the identity stays resolvable under the new spelling.
func (uc *AuthorUseCase) RenameAuthor(ctx context.Context, tok, newName string, cascadeAlias bool) (*Author, error) {
	author, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, authorError(err)
	}

	oldName := author.Name
	if cascadeAlias {
		if err := uc.repo.RenameWithAlias(ctx, author.ID, oldName, newName); err != nil {
			return nil, authorError(err)
		}
	} else {
		author.Name = newName
		if err := uc.repo.Update(ctx, author); err != nil {
			return nil, authorError(err)
		}
	}

	uc.logger.Info("author renamed",
		zap.String("token", tok),
		zap.String("from", oldName),
		zap.String("to", newName),
	)

	author.Name = newName
	return author, nil
}

func (uc *AuthorUseCase) DeleteAuthor(ctx context.Context, tok string) error {
	author, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return authorError(err)
	}

	if len(author.Aliases) > 0 {
		return apperrors.New(apperrors.ErrAuthorHasAliases)
	}

	if err := uc.repo.Delete(ctx, author.ID); err != nil {
		return authorError(err)
	}

	uc.logger.Info("author deleted", zap.String("token", tok), zap.String("name", author.Name))
	return nil
}

func (uc *AuthorUseCase) GetAuthorAliases(ctx context.Context, tok string) ([]*AuthorAlias, error) {
	author, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, authorError(err)
	}
	return author.Aliases, nil
}

// MergeAuthors moves all of the consumed author's aliases to the target
// author. Unless preserveConsumed is set, the emptied author is deleted.
func (uc *AuthorUseCase) MergeAuthors(ctx context.Context, targetTok, consumedTok string, preserveConsumed bool) error {
	target, err := uc.repo.GetByToken(ctx, targetTok)
	if err != nil {
		return authorError(err)
	}

	consumed, err := uc.repo.GetByToken(ctx, consumedTok)
	if err != nil {
		return authorError(err)
	}

	if err := uc.repo.MergeAliases(ctx, target.ID, consumed.ID, !preserveConsumed); err != nil {
		return authorError(err)
	}

	uc.logger.Info("authors merged",
		zap.String("target", targetTok),
		zap.String("consumed", consumedTok),
		zap.Bool("preserved", preserveConsumed),
	)
	return nil
}

func authorError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.New(apperrors.ErrAuthorNotFound)
	case errors.Is(err, ErrDuplicateName):
		return apperrors.New(apperrors.ErrConflict, "name already in use")
	}
	return apperrors.Wrap(err, apperrors.ErrInternalServer)
}
