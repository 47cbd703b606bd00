package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// userETag changes whenever the stored row does: id plus updated_at identify a version.
func userETag(u user.PublicUser) string {
	sum := sha256.Sum256([]byte(u.ID + "|" + strconv.FormatInt(u.UpdatedAt.UnixNano(), 10)))

	return `W/"` + hex.EncodeToString(sum[:16]) + `"`
}

// respondUser answers 304 with an empty body when If-None-Match already names
// this version. Clients must still revalidate on every read.
func respondUser(ctx *gin.Context, u user.PublicUser) {
	etag := userETag(u)

	ctx.Header("Cache-Control", "private, no-cache")
	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	RespondSuccess(ctx, http.StatusOK, u)
}

// weak comparison, as If-None-Match requires
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := strings.TrimPrefix(etag, "W/")

	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}

	return false
}
