package comment_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jhoicas/logistica-api/internal/domain/comment"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestPreview_ColapsaEspacios(t *testing.T) {
	assert.Equal(t, "hola mundo feliz", comment.Preview("  hola\n\tmundo   feliz  "))
}

func TestPreview_TruncaConElipsis(t *testing.T) {
	long := strings.Repeat("á", 200)
	got := comment.Preview(long)
	assert.Equal(t, comment.PreviewLimit, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestPreview_ExactamenteElLimiteNoTrunca(t *testing.T) {
	text := strings.Repeat("x", comment.PreviewLimit)
	assert.Equal(t, text, comment.Preview(text))
}

func TestPreview_NormalizaNFC(t *testing.T) {
	// "e" + acento combinante = una sola runa tras NFC.
	assert.Equal(t, "\u00e9", comment.Preview("e\u0301"))
}

func TestPermisos(t *testing.T) {
	c := &entity.Comment{ID: "x", UserID: "u1"}
	author := entity.Actor{UserID: "u1", Role: entity.RoleClient, ClientID: "C1"}
	admin := entity.Actor{UserID: "a1", Role: entity.RoleAdmin}
	acct := entity.Actor{UserID: "c1", Role: entity.RoleAccountant}

	assert.True(t, comment.CanEdit(author, c))
	assert.False(t, comment.CanEdit(admin, c))
	assert.True(t, comment.CanDelete(admin, c))
	assert.False(t, comment.CanDelete(acct, c))
	assert.False(t, comment.CanPostInternal(author))
	assert.True(t, comment.CanPostInternal(acct))
	assert.False(t, comment.IncludeInternal(author))
	assert.True(t, comment.IncludeInternal(acct))
}
