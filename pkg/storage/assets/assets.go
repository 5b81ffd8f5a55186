// Package assets persists uploaded project files on the local filesystem and maps them to
// publicly resolvable URLs, served back by the API under its static files route.
package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// The two logical buckets: a legacy one holding primary project images and one
// accepting arbitrary project documents.
const (
	ImagesBucket = "project-images"
	FilesBucket  = "project-files"
)

var ErrForeignURL = errors.New("URL doesn't belong to the assets store")

type Storage struct {
	logger    logrus.FieldLogger
	root      string
	publicURL string
}

// New prepares the assets directories and returns a store mapping them to public URLs.
func New(logger logrus.FieldLogger, root string, publicURL string) (*Storage, error) {
	logger.Println("initialising assets store")

	for _, bucket := range []string{ImagesBucket, FilesBucket} {
		if err := os.MkdirAll(filepath.Join(root, bucket), 0750); err != nil {
			return nil, err
		}
	}

	return &Storage{logger, root, strings.TrimSuffix(publicURL, "/")}, nil
}

// Save stores the given contents in a bucket, namespaced by the owner's id, under a freshly
// generated UUID name; timestamp derived names collide under rapid sequential uploads.
func (s *Storage) Save(bucket, ownerId, extension string, contents io.Reader) (string, error) {

	token, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	var name = token.String()
	if extension != "" {
		name = fmt.Sprintf("%s.%s", name, strings.TrimPrefix(extension, "."))
	}

	var directory = filepath.Join(s.root, bucket, ownerId)
	if err = os.MkdirAll(directory, 0750); err != nil {
		return "", err
	}

	file, err := os.Create(filepath.Join(directory, name))
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(file, contents); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}

	if err = file.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", s.publicURL, path.Join(bucket, ownerId, name)), nil
}

// Remove deletes the object behind a previously issued public URL. Missing objects are
// tolerated, so compensating cleanups can run repeatedly.
func (s *Storage) Remove(url string) error {

	relative, found := strings.CutPrefix(url, s.publicURL+"/")
	if !found {
		return ErrForeignURL
	}

	// normalise the path and refuse escapes from the assets root
	var target = filepath.Join(s.root, filepath.FromSlash(path.Clean(relative)))
	if !strings.HasPrefix(target, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return ErrForeignURL
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll best-effort deletes a batch of previously stored objects, logging rather than
// propagating failures; it backs the compensating action on partial upload failures.
func (s *Storage) RemoveAll(urls []string) {
	for _, url := range urls {
		if err := s.Remove(url); err != nil {
			s.logger.WithError(err).WithField("url", url).Warning("couldn't remove stored asset")
		}
	}
}
