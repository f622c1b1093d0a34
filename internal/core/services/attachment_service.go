package services

import (
	"context"
	"io"
	"log"
	"strconv"

	"offertrack/internal/adapters/storage"
)

// Upload is one file received with a create or update request.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// AttachmentService synchronizes an offer's on-disk file set with the
// client-supplied keep list plus newly uploaded files.
type AttachmentService struct {
	store storage.Store
	locks *keyedMutex
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(store storage.Store) *AttachmentService {
	return &AttachmentService{
		store: store,
		locks: newKeyedMutex(),
	}
}

// Reconcile brings the offer's stored files in line with keep+uploads:
//  1. files on disk that are not in keep are deleted
//  2. each upload is stored under its sanitized basename
//  3. the final list is the first-occurrence-order dedup of the kept
//     names (only those actually on disk) and the stored upload names
//
// Uploads that fail to store are excluded from the final list and
// returned in failed so callers can report them. Reconciliations for
// the same offer are serialized; the delete-then-write sequence itself
// is not crash-atomic.
func (s *AttachmentService) Reconcile(ctx context.Context, offerID uint, keep []string, uploads []Upload) (final []string, failed []string, err error) {
	unlock := s.locks.lock(strconv.FormatUint(uint64(offerID), 10))
	defer unlock()

	keepSet := make(map[string]bool, len(keep))
	for _, name := range keep {
		if clean, nameErr := storage.SanitizeName(name); nameErr == nil {
			keepSet[clean] = true
		}
	}

	existing, err := s.store.List(offerID)
	if err != nil {
		return nil, nil, err
	}

	onDisk := make(map[string]bool, len(existing))
	for _, name := range existing {
		if !keepSet[name] {
			if delErr := s.store.Delete(offerID, name); delErr != nil {
				// Leaving an orphan file behind is acceptable
				// degradation; the record update still goes through.
				log.Printf("attachment delete failed (offer %d, %s): %v", offerID, name, delErr)
			}
			continue
		}
		onDisk[name] = true
	}

	var stored []string
	for _, upload := range uploads {
		name, storeErr := s.storeUpload(offerID, upload)
		if storeErr != nil {
			log.Printf("attachment upload failed (offer %d, %s): %v", offerID, upload.Name, storeErr)
			failed = append(failed, upload.Name)
			continue
		}
		stored = append(stored, name)
	}

	final = make([]string, 0, len(keep)+len(stored))
	seen := make(map[string]bool)
	for _, name := range keep {
		if onDisk[name] && !seen[name] {
			seen[name] = true
			final = append(final, name)
		}
	}
	for _, name := range stored {
		if !seen[name] {
			seen[name] = true
			final = append(final, name)
		}
	}

	return final, failed, nil
}

// RemoveAll deletes the offer's whole attachment directory.
func (s *AttachmentService) RemoveAll(offerID uint) error {
	unlock := s.locks.lock(strconv.FormatUint(uint64(offerID), 10))
	defer unlock()

	return s.store.DeleteAll(offerID)
}

func (s *AttachmentService) storeUpload(offerID uint, upload Upload) (string, error) {
	name, err := storage.SanitizeName(upload.Name)
	if err != nil {
		return "", err
	}

	src, err := upload.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := s.store.Put(offerID, name, src); err != nil {
		return "", err
	}
	return name, nil
}
