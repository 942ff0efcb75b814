package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"
)

// FileJar is an http.CookieJar that survives process restarts, so the
// refresh cookie set at login is still there for the next CLI invocation.
type FileJar struct {
	mu    sync.Mutex
	path  string
	jar   *cookiejar.Jar
	saved map[string]map[string]persistedCookie // origin -> cookie name -> cookie
}

type persistedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func NewFileJar(path string) (*FileJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	fj := &FileJar{path: path, jar: jar, saved: map[string]map[string]persistedCookie{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fj, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	if err := json.Unmarshal(data, &fj.saved); err != nil {
		return nil, fmt.Errorf("decode cookie file: %w", err)
	}

	now := time.Now()
	for origin, cookies := range fj.saved {
		u, err := url.Parse(origin)
		if err != nil {
			delete(fj.saved, origin)
			continue
		}
		restored := make([]*http.Cookie, 0, len(cookies))
		for name, c := range cookies {
			if !c.Expires.IsZero() && c.Expires.Before(now) {
				delete(cookies, name)
				continue
			}
			restored = append(restored, &http.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Path:     c.Path,
				Domain:   c.Domain,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HttpOnly: c.HttpOnly,
			})
		}
		jar.SetCookies(u, restored)
	}
	return fj, nil
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	origin := u.Scheme + "://" + u.Host
	bucket := j.saved[origin]
	if bucket == nil {
		bucket = map[string]persistedCookie{}
		j.saved[origin] = bucket
	}

	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) || c.Value == "" {
			delete(bucket, c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		bucket[c.Name] = persistedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}

	// A failed write only costs the next run its refresh cookie.
	_ = j.persist()
}

func (j *FileJar) persist() error {
	data, err := json.Marshal(j.saved)
	if err != nil {
		return err
	}
	return writeFileAtomic(j.path, data)
}
