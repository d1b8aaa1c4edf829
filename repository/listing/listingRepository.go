package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rentalbooking/model"
	"rentalbooking/util/httpx"
)

var (
	ErrNotFound    = errors.New("listing not found")
	ErrUnavailable = errors.New("listing registry unavailable")
)

type Registry interface {
	Get(ctx context.Context, id string) (model.Listing, error)
}

type httpRepo struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string, c *http.Client) Registry {
	if c == nil {
		c = httpx.Client()
	}
	return &httpRepo{baseURL: strings.TrimRight(baseURL, "/"), client: c}
}

type listingBody struct {
	Data *struct {
		ID      string        `json:"_id"`
		Owner   string        `json:"owner"`
		Price   float64       `json:"price"`
		Title   string        `json:"title"`
		Address model.Address `json:"address"`
	} `json:"data"`
}

func (r *httpRepo) Get(ctx context.Context, id string) (model.Listing, error) {
	var out listingBody
	u := r.baseURL + "/" + url.PathEscape(id)
	if err := httpx.DoJSON(ctx, r.client, http.MethodGet, u, nil, nil, &out); err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && (se.Status == http.StatusNotFound || se.Status == http.StatusBadRequest) {
			return model.Listing{}, ErrNotFound
		}
		return model.Listing{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out.Data == nil {
		return model.Listing{}, ErrNotFound
	}

	l := model.Listing{
		ID:           out.Data.ID,
		OwnerID:      out.Data.Owner,
		NightlyPrice: out.Data.Price,
		Title:        out.Data.Title,
		Address:      out.Data.Address,
	}
	if l.ID == "" {
		l.ID = id
	}
	return l, nil
}
