package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
)

func TestListPostsPinsAnonymousToPublished(t *testing.T) {
	db := testDB(t, "posts_list_visibility")
	r := postRouter(db)

	seedPost(t, db, models.Post{Title: "Public Post"})
	seedPost(t, db, models.Post{Title: "Hidden Draft", Status: models.PostStatusDraft})

	w, env := request(t, r, http.MethodGet, "/api/v1/posts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := items(t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "Public Post", list[0].(map[string]interface{})["title"])

	// Anonymous status filters are ignored, not honored.
	_, env = request(t, r, http.MethodGet, "/api/v1/posts?status=draft", nil, "")
	list = items(t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "Public Post", list[0].(map[string]interface{})["title"])

	// Admins can reach drafts.
	_, env = request(t, r, http.MethodGet, "/api/v1/posts?status=draft", nil, adminToken(t))
	list = items(t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "Hidden Draft", list[0].(map[string]interface{})["title"])

	// Unknown status values are rejected for admins.
	w, env = request(t, r, http.MethodGet, "/api/v1/posts?status=bogus", nil, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40020, env.Code)
}

func TestListPostsFilters(t *testing.T) {
	db := testDB(t, "posts_list_filters")
	r := postRouter(db)

	seedPost(t, db, models.Post{
		Title:      "Go Concurrency Patterns",
		Tags:       models.StringList{"go", "concurrency"},
		Categories: models.StringList{"programming"},
		Featured:   true,
	})
	seedPost(t, db, models.Post{
		Title:       "Rust Ownership Explained",
		Description: "memory safety without garbage collection",
		Tags:        models.StringList{"rust"},
		Categories:  models.StringList{"systems"},
	})
	seedPost(t, db, models.Post{
		Title:  "Draft About Go",
		Tags:   models.StringList{"go"},
		Status: models.PostStatusDraft,
	})

	title := func(v interface{}) string { return v.(map[string]interface{})["title"].(string) }

	_, env := request(t, r, http.MethodGet, "/api/v1/posts?tag=go", nil, "")
	list := items(t, env)
	require.Len(t, list, 1, "tag filter only matches published posts")
	assert.Equal(t, "Go Concurrency Patterns", title(list[0]))

	// Tag matching is case-insensitive.
	_, env = request(t, r, http.MethodGet, "/api/v1/posts?tag=GO", nil, "")
	require.Len(t, items(t, env), 1)

	_, env = request(t, r, http.MethodGet, "/api/v1/posts?category=programming", nil, "")
	require.Len(t, items(t, env), 1)

	_, env = request(t, r, http.MethodGet, "/api/v1/posts?featured=true", nil, "")
	list = items(t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "Go Concurrency Patterns", title(list[0]))

	_, env = request(t, r, http.MethodGet, "/api/v1/posts?search=ownership", nil, "")
	list = items(t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "Rust Ownership Explained", title(list[0]))

	_, env = request(t, r, http.MethodGet, "/api/v1/posts?search=garbage+collection", nil, "")
	require.Len(t, items(t, env), 1, "search covers descriptions")

	_, env = request(t, r, http.MethodGet, "/api/v1/posts?sort=title&order=asc", nil, "")
	list = items(t, env)
	require.Len(t, list, 2)
	assert.Equal(t, "Go Concurrency Patterns", title(list[0]))
}

func TestListPostsPagination(t *testing.T) {
	db := testDB(t, "posts_list_pagination")
	r := postRouter(db)

	for i := 1; i <= 5; i++ {
		seedPost(t, db, models.Post{Title: "Post " + strconv.Itoa(i)})
	}

	_, env := request(t, r, http.MethodGet, "/api/v1/posts?page=2&limit=2&sort=title&order=asc", nil, "")
	list := items(t, env)
	require.Len(t, list, 2)
	assert.Equal(t, "Post 3", list[0].(map[string]interface{})["title"])

	meta := dataMap(t, env)["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(5), meta["total"])
	assert.Equal(t, float64(3), meta["total_pages"])
}

func TestGetPostIncrementsViews(t *testing.T) {
	db := testDB(t, "posts_get_views")
	r := postRouter(db)

	seedPost(t, db, models.Post{Title: "Counted Post"})

	w, env := request(t, r, http.MethodGet, "/api/v1/posts/counted-post", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	post := dataMap(t, env)["post"].(map[string]interface{})
	assert.Equal(t, float64(1), post["views"])

	_, env = request(t, r, http.MethodGet, "/api/v1/posts/counted-post", nil, "")
	post = dataMap(t, env)["post"].(map[string]interface{})
	assert.Equal(t, float64(2), post["views"], "views increment by exactly one per read")

	// Numeric IDs resolve the same record.
	id := strconv.Itoa(int(post["id"].(float64)))
	_, env = request(t, r, http.MethodGet, "/api/v1/posts/"+id, nil, "")
	post = dataMap(t, env)["post"].(map[string]interface{})
	assert.Equal(t, float64(3), post["views"])
}

func TestGetPostVisibility(t *testing.T) {
	db := testDB(t, "posts_get_visibility")
	r := postRouter(db)

	seedPost(t, db, models.Post{Title: "Secret Draft", Status: models.PostStatusDraft})

	w, env := request(t, r, http.MethodGet, "/api/v1/posts/secret-draft", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "drafts read as absent for anonymous callers")
	assert.Equal(t, 40401, env.Code)

	w, _ = request(t, r, http.MethodGet, "/api/v1/posts/secret-draft", nil, adminToken(t))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = request(t, r, http.MethodGet, "/api/v1/posts/never-existed", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPostRelated(t *testing.T) {
	db := testDB(t, "posts_get_related")
	r := postRouter(db)

	seedPost(t, db, models.Post{Title: "Main Post", Tags: models.StringList{"go"}})
	seedPost(t, db, models.Post{Title: "Sibling Post", Tags: models.StringList{"Go", "web"}})
	seedPost(t, db, models.Post{Title: "Unrelated Post", Tags: models.StringList{"rust"}})
	seedPost(t, db, models.Post{Title: "Draft Sibling", Tags: models.StringList{"go"}, Status: models.PostStatusDraft})

	_, env := request(t, r, http.MethodGet, "/api/v1/posts/main-post", nil, "")
	related := dataMap(t, env)["related"].([]interface{})
	require.Len(t, related, 1, "only published posts sharing a label are related")
	assert.Equal(t, "Sibling Post", related[0].(map[string]interface{})["title"])
}

func TestLikePost(t *testing.T) {
	db := testDB(t, "posts_like")
	r := postRouter(db)

	seedPost(t, db, models.Post{Title: "Likable Post"})

	w, env := request(t, r, http.MethodPost, "/api/v1/posts/likable-post/like", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, env)["likes"])

	_, env = request(t, r, http.MethodPost, "/api/v1/posts/likable-post/like", nil, "")
	assert.Equal(t, float64(2), dataMap(t, env)["likes"])

	w, _ = request(t, r, http.MethodPost, "/api/v1/posts/missing/like", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostRequiresAdmin(t *testing.T) {
	db := testDB(t, "posts_create_auth")
	r := postRouter(db)
	payload := map[string]interface{}{"title": "T", "content": "c"}

	w, _ := request(t, r, http.MethodPost, "/api/v1/posts", payload, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = request(t, r, http.MethodPost, "/api/v1/posts", payload, viewerToken(t))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePostDerivesFields(t *testing.T) {
	db := testDB(t, "posts_create_derive")
	r := postRouter(db)

	content := `<img src="https://cdn.example.com/cover.png"><p>` +
		strings.TrimSpace(strings.Repeat("word ", 250)) + `</p>`
	payload := map[string]interface{}{
		"title":   "My New Post",
		"content": content,
		"tags":    []string{"Go", "go", "web", "", "api", "infra", "cli", "db", "net", "sre", "perf", "extra"},
	}

	w, env := request(t, r, http.MethodPost, "/api/v1/posts", payload, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	post := dataMap(t, env)["post"].(map[string]interface{})

	assert.Equal(t, "my-new-post", post["slug"])
	assert.True(t, strings.HasPrefix(post["external_id"].(string), "local-"))
	assert.Equal(t, "https://cdn.example.com/cover.png", post["image_url"])
	assert.Equal(t, float64(2), post["reading_time"], "250 words read in two minutes")
	assert.Equal(t, models.PostStatusPublished, post["status"])
	assert.NotEmpty(t, post["description"])
	assert.NotEmpty(t, post["excerpt"])

	tags := post["tags"].([]interface{})
	assert.Len(t, tags, 10, "tags are deduplicated and capped")
	assert.Equal(t, "Go", tags[0])
}

func TestCreatePostRejectsDuplicates(t *testing.T) {
	db := testDB(t, "posts_create_duplicate")
	r := postRouter(db)

	payload := map[string]interface{}{"title": "Same Title", "content": "body"}
	w, _ := request(t, r, http.MethodPost, "/api/v1/posts", payload, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	w, env := request(t, r, http.MethodPost, "/api/v1/posts", payload, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40024, env.Code)

	// Same external id is likewise a client error, not a crash.
	w, env = request(t, r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"title": "Other Title", "content": "body", "external_id": "local-fixed", "slug": "other-title",
	}, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	w, env = request(t, r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"title": "Third Title", "content": "body", "external_id": "local-fixed",
	}, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40025, env.Code)
}

func TestUpdatePostPreservesLocalFields(t *testing.T) {
	db := testDB(t, "posts_update")
	r := postRouter(db)

	post := seedPost(t, db, models.Post{Title: "Original", Views: 5, Likes: 2})
	id := strconv.Itoa(int(post.ID))

	payload := map[string]interface{}{
		"title":    "Updated Title",
		"content":  "fresh body",
		"featured": true,
		"status":   models.PostStatusArchived,
	}
	w, env := request(t, r, http.MethodPut, "/api/v1/posts/"+id, payload, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	updated := dataMap(t, env)["post"].(map[string]interface{})
	assert.Equal(t, "Updated Title", updated["title"])
	assert.Equal(t, "original", updated["slug"], "slug survives edits")
	assert.Equal(t, float64(5), updated["views"])
	assert.Equal(t, float64(2), updated["likes"])
	assert.Equal(t, true, updated["featured"])
	assert.Equal(t, models.PostStatusArchived, updated["status"])

	w, env = request(t, r, http.MethodPut, "/api/v1/posts/"+id, map[string]interface{}{
		"title": "X", "content": "y", "status": "bogus",
	}, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40023, env.Code)

	w, _ = request(t, r, http.MethodPut, "/api/v1/posts/not-a-number", payload, adminToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = request(t, r, http.MethodPut, "/api/v1/posts/99999", payload, adminToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePost(t *testing.T) {
	db := testDB(t, "posts_delete")
	r := postRouter(db)

	post := seedPost(t, db, models.Post{Title: "Doomed Post"})
	id := strconv.Itoa(int(post.ID))

	w, _ := request(t, r, http.MethodDelete, "/api/v1/posts/"+id, nil, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	w, _ = request(t, r, http.MethodDelete, "/api/v1/posts/"+id, nil, adminToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostStats(t *testing.T) {
	db := testDB(t, "posts_stats")
	r := postRouter(db)

	seedPost(t, db, models.Post{Title: "One", Views: 10, Likes: 1, Featured: true, Tags: models.StringList{"go", "web"}})
	seedPost(t, db, models.Post{Title: "Two", Views: 5, Tags: models.StringList{"go"}})
	seedPost(t, db, models.Post{Title: "Three", Status: models.PostStatusDraft})

	w, env := request(t, r, http.MethodGet, "/api/v1/posts/stats", nil, adminToken(t))
	require.Equal(t, http.StatusOK, w.Code)
	stats := dataMap(t, env)

	assert.Equal(t, float64(3), stats["total"])
	byStatus := stats["by_status"].(map[string]interface{})
	assert.Equal(t, float64(2), byStatus[models.PostStatusPublished])
	assert.Equal(t, float64(1), byStatus[models.PostStatusDraft])
	assert.Equal(t, float64(0), byStatus[models.PostStatusArchived])
	assert.Equal(t, float64(1), stats["featured"])
	assert.Equal(t, float64(15), stats["views"])
	assert.Equal(t, float64(1), stats["likes"])

	topTags := stats["top_tags"].([]interface{})
	require.NotEmpty(t, topTags)
	first := topTags[0].(map[string]interface{})
	assert.Equal(t, "go", first["tag"])
	assert.Equal(t, float64(2), first["count"])
}
