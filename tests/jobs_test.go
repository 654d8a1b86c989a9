package tests

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gavv/httpexpect/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/video-splitter/internal/models"
)

func expect(t *testing.T) *httpexpect.Expect {
	u := url.URL{
		Scheme: "http",
		Host:   cfg.Address,
	}

	return httpexpect.Default(t, u.String())
}

func TestSearchJobs(t *testing.T) {
	skipWithoutEnv(t)

	e := expect(t)

	e.GET("/jobs").
		Expect().
		Status(200).
		JSON().
		Object().
		ContainsKey("jobs")
}

func TestJobNotFound(t *testing.T) {
	skipWithoutEnv(t)

	e := expect(t)

	e.GET("/jobs/" + uuid.NewString()).
		Expect().
		Status(404).
		JSON().
		Path("$.error").
		String().
		IsEqual("job not found")
}

func TestUploadBadPartCount(t *testing.T) {
	skipWithoutEnv(t)

	e := expect(t)

	for _, parts := range []string{"1", "5", "0", "abc"} {
		e.POST("/jobs").
			WithMultipart().
			WithFile("video", gofakeit.Word()+".mp4", strings.NewReader("stub")).
			WithFormField("parts", parts).
			Expect().
			Status(400).
			JSON().
			Object().
			ContainsKey("error")
	}
}

func TestUploadRejectsNonVideo(t *testing.T) {
	skipWithoutEnv(t)

	e := expect(t)

	e.POST("/jobs").
		WithMultipart().
		WithFile("video", "notes.txt", strings.NewReader(gofakeit.Sentence(10))).
		WithFormField("parts", "2").
		Expect().
		Status(400).
		JSON().
		Path("$.error").
		String().
		IsEqual("unsupported mime-type")
}

func TestDeleteWithoutSession(t *testing.T) {
	skipWithoutEnv(t)

	e := expect(t)

	e.DELETE("/jobs/" + uuid.NewString()).
		Expect().
		Status(401).
		JSON().
		Path("$.error").
		String().
		IsEqual("authentication error")
}

// TestSplitVideo runs the whole pipeline against a real video,
// so it needs SOURCE_FILE and ffmpeg on the server side.
func TestSplitVideo(t *testing.T) {
	skipWithoutEnv(t)

	if sourceFile == "" {
		t.Skip("SOURCE_FILE is not set, skipping pipeline test")
	}

	e := expect(t)

	parts := gofakeit.Number(models.MinParts, models.MaxParts)

	res := e.POST("/jobs").
		WithMultipart().
		WithFile("video", sourceFile).
		WithFormField("parts", strconv.Itoa(parts)).
		Expect().
		Status(200)

	res.Cookie("session").Value().NotEmpty()

	id := res.JSON().Object().Value("id").String().NotEmpty().Raw()

	status := string(models.StatusProcessing)
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		status = e.GET("/jobs/" + id).
			Expect().
			Status(200).
			JSON().
			Path("$.job.status").
			String().
			Raw()

		if status != string(models.StatusProcessing) {
			break
		}

		time.Sleep(time.Second)
	}

	require.Equal(t, string(models.StatusCompleted), status)

	obj := e.GET("/jobs/" + id).
		Expect().
		Status(200).
		JSON().
		Object()

	links := obj.Value("links").Array()
	links.Length().IsEqual(parts)

	obj.Path("$.job.segments").Array().Length().IsEqual(parts)

	for _, link := range links.Iter() {
		e.GET(link.String().Raw()).
			Expect().
			Status(200)
	}
}
