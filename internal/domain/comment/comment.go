// Package comment contiene reglas puras del canal de comentarios: vista previa y visibilidad.
package comment

import (
	"strings"
	"unicode/utf8"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"golang.org/x/text/unicode/norm"
)

// PreviewLimit máximo de caracteres (runas) de la vista previa en la bitácora.
const PreviewLimit = 140

const ellipsis = "…"

// Preview normaliza (NFC), colapsa espacios en blanco y trunca a PreviewLimit runas con "…".
func Preview(text string) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(text)), " ")
	if utf8.RuneCountInString(collapsed) <= PreviewLimit {
		return collapsed
	}
	runes := []rune(collapsed)
	cut := strings.TrimRight(string(runes[:PreviewLimit-1]), " ")
	return cut + ellipsis
}

// IncludeInternal indica si el visor puede ver comentarios internos. Filtro duro en la consulta.
func IncludeInternal(viewer entity.Actor) bool {
	return viewer.IsStaff()
}

// CanPostInternal indica si el autor puede publicar comentarios internos.
func CanPostInternal(author entity.Actor) bool {
	return author.IsStaff()
}

// CanEdit solo el autor edita su comentario.
func CanEdit(actor entity.Actor, c *entity.Comment) bool {
	return c != nil && actor.UserID != "" && actor.UserID == c.UserID
}

// CanDelete el autor o un administrador.
func CanDelete(actor entity.Actor, c *entity.Comment) bool {
	return CanEdit(actor, c) || (c != nil && actor.IsAdmin())
}
