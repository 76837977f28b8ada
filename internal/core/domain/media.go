package domain

import (
	"io"
	"strings"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Media référence un objet déjà stocké (S3). Key est l'identité, URL est pour l'affichage.
type Media struct {
	Key  string
	URL  string
	Type MediaType
}

func (m Media) IsZero() bool {
	return strings.TrimSpace(m.Key) == ""
}

// Upload est un fichier reçu du client, pas encore stocké.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (u *Upload) IsEmpty() bool {
	return u == nil || u.Body == nil || u.Size <= 0
}
