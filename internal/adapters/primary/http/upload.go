package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err)
	}
	return nil
}

// readUpload renvoie nil si le champ est absent. Le type est détecté sur
// le contenu, le Content-Type annoncé par le client n'est pas cru.
// L'appelant ferme le fichier avec closeUpload.
func readUpload(r *http.Request, field, wantPrefix string) (*domain.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrValidation, field, err)
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	contentType := sniffContentType(sniff[:n])
	if !strings.HasPrefix(contentType, wantPrefix) {
		file.Close()
		return nil, fmt.Errorf("%w: %s must be %s*, got %s", domain.ErrValidation, field, wantPrefix, contentType)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("rewind %s: %w", field, err)
	}

	return &domain.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, nil
}

// closeUpload libère le fichier (temporaire sur disque au-delà de multipartMemory)
func closeUpload(u *domain.Upload) {
	if u == nil {
		return
	}
	if c, ok := u.Body.(io.Closer); ok {
		_ = c.Close()
	}
}

// Marques ISO BMFF (octets 8..12) que DetectContentType ne connaît pas
var ftypBrands = map[string]string{
	"qt  ": "video/quicktime",
	"heic": "image/heic",
	"heix": "image/heic",
	"heim": "image/heic",
	"heis": "image/heic",
	"hevc": "image/heic",
	"mif1": "image/heif",
	"msf1": "image/heif",
	"heif": "image/heif",
	"avif": "image/avif",
}

// sniffContentType complète http.DetectContentType pour les conteneurs
// ISO BMFF des téléphones (.mov, HEIC).
func sniffContentType(head []byte) string {
	if len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp")) {
		if ct, ok := ftypBrands[string(head[8:12])]; ok {
			return ct
		}
	}
	return http.DetectContentType(head)
}
