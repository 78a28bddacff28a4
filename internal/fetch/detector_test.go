package fetch

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curiobot/curio/internal/curio"
)

func TestBotWallHeuristic_ShouldPromote(t *testing.T) {
	t.Parallel()

	h := NewBotWallHeuristic(0)
	longBody := []byte("<html>" + strings.Repeat("real product page content ", 200) + "</html>")

	tests := []struct {
		name string
		resp curio.FetchResponse
		want bool
	}{
		{
			name: "403 promotes",
			resp: curio.FetchResponse{StatusCode: http.StatusForbidden},
			want: true,
		},
		{
			name: "429 promotes",
			resp: curio.FetchResponse{StatusCode: http.StatusTooManyRequests},
			want: true,
		},
		{
			name: "404 does not promote",
			resp: curio.FetchResponse{StatusCode: http.StatusNotFound},
			want: false,
		},
		{
			name: "empty 200 promotes",
			resp: curio.FetchResponse{StatusCode: http.StatusOK},
			want: true,
		},
		{
			name: "short shell promotes",
			resp: curio.FetchResponse{StatusCode: http.StatusOK, Body: []byte("<html><body></body></html>")},
			want: true,
		},
		{
			name: "captcha marker promotes",
			resp: curio.FetchResponse{
				StatusCode: http.StatusOK,
				Body:       append(append([]byte{}, longBody...), []byte("<div class=\"captcha\">")...),
			},
			want: true,
		},
		{
			name: "normal page does not promote",
			resp: curio.FetchResponse{StatusCode: http.StatusOK, Body: longBody},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, h.ShouldPromote(tc.resp))
		})
	}
}
