package photo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultLibraryURL = "https://photoslibrary.googleapis.com/v1"

// searchPageSize is the page size used when listing album media items.
const searchPageSize = 100

// RemoteSource resolves albums against a remote photo-library API,
// authenticated with a bearer token.
type RemoteSource struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemoteSource creates a RemoteSource. An empty baseURL selects the
// Google Photos Library endpoint.
func NewRemoteSource(baseURL, token string) *RemoteSource {
	if baseURL == "" {
		baseURL = defaultLibraryURL
	}
	return &RemoteSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type albumList struct {
	Albums []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"albums"`
}

type mediaItemPage struct {
	MediaItems []struct {
		ID            string `json:"id"`
		MimeType      string `json:"mimeType"`
		BaseURL       string `json:"baseUrl"`
		Filename      string `json:"filename"`
		MediaMetadata struct {
			CreationTime time.Time `json:"creationTime"`
		} `json:"mediaMetadata"`
	} `json:"mediaItems"`
	NextPageToken string `json:"nextPageToken"`
}

type searchRequest struct {
	AlbumID   string `json:"albumId"`
	PageSize  int    `json:"pageSize"`
	PageToken string `json:"pageToken,omitempty"`
}

// Resolve looks the album up by case-insensitive title, then pages through
// its media items, keeping only images. Image URIs are direct-download
// variants of the backend's base URL.
func (s *RemoteSource) Resolve(ctx context.Context, query AlbumQuery) ([]Ref, error) {
	albumID, err := s.findAlbum(ctx, query.Album)
	if err != nil {
		return nil, err
	}

	refs := make([]Ref, 0)
	pageToken := ""
	for {
		page, err := s.searchPage(ctx, albumID, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.MediaItems {
			if !strings.HasPrefix(item.MimeType, "image/") {
				continue
			}
			added := item.MediaMetadata.CreationTime
			if query.Day != nil && !added.IsZero() && !withinDay(added.Unix(), *query.Day) {
				continue
			}
			refs = append(refs, Ref{
				ID:          item.ID,
				URI:         item.BaseURL + "=d",
				Filename:    item.Filename,
				ContentType: item.MimeType,
				AddedAt:     added,
			})
		}
		if page.NextPageToken == "" {
			return refs, nil
		}
		pageToken = page.NextPageToken
	}
}

// Open downloads the photo bytes from its direct-download URI.
func (s *RemoteSource) Open(ctx context.Context, ref Ref) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading photo: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *RemoteSource) findAlbum(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/albums", nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("listing albums: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing albums: %s", resp.Status)
	}

	var list albumList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", fmt.Errorf("decoding album list: %w", err)
	}

	for _, album := range list.Albums {
		if strings.EqualFold(album.Title, name) {
			return album.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrAlbumNotFound, name)
}

func (s *RemoteSource) searchPage(ctx context.Context, albumID, pageToken string) (*mediaItemPage, error) {
	body, err := json.Marshal(searchRequest{
		AlbumID:   albumID,
		PageSize:  searchPageSize,
		PageToken: pageToken,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/mediaItems:search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching media items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching media items: %s", resp.Status)
	}

	var page mediaItemPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding media items: %w", err)
	}
	return &page, nil
}
