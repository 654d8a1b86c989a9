package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	jwtController "github.com/GintGld/video-splitter/internal/controller/jwt"
	"github.com/GintGld/video-splitter/internal/models"
	"github.com/GintGld/video-splitter/internal/service"
)

func New(
	srvJob Job,
	srvSession Session,
	jwtC *jwtController.JWT,
	tmpDir string,
) *fiber.App {
	jobCtr := jobController{
		srvJob:     srvJob,
		srvSession: srvSession,
		tmpDir:     tmpDir,
	}

	app := fiber.New(fiber.Config{
		EnableSplittingOnParsers: true,
	})

	app.Post("/", jobCtr.newJob)
	app.Get("/", jobCtr.searchJobs)
	app.Get("/:id", jobCtr.job)
	app.Get("/:id/parts/:idx", jobCtr.downloadPart)
	app.Delete("/:id", jwtC.AuthRequired(), jobCtr.deleteJob)

	return app
}

type jobController struct {
	srvJob     Job
	srvSession Session
	tmpDir     string
}

type Job interface {
	NewJob(ctx context.Context, srcPath, originalName string, parts int, owner string) (string, error)
	Job(ctx context.Context, id string) (models.Job, error)
	SearchJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	SegmentPath(ctx context.Context, id string, index int) (string, error)
	DeleteJob(ctx context.Context, id string, owner string) error
}

type Session interface {
	NewToken(sid string) (string, error)
	Parse(token string) (string, error)
}

// newJob saves the uploaded video and queues a split job.
func (jobCtr *jobController) newJob(c *fiber.Ctx) error {
	parts, err := strconv.Atoi(c.FormValue("parts"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "part count must be an integer",
		})
	}

	if parts < models.MinParts || parts > models.MaxParts {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("part count must be between %d and %d", models.MinParts, models.MaxParts),
		})
	}

	file, err := c.FormFile("video")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no video file",
		})
	}

	fileType := file.Header.Get("Content-Type")
	if fileType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content-type not found",
		})
	}

	// recognize MIME-type (allow only video/mp4)
	if fileType != "application/octet-stream" && fileType != "video/mp4" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unsupported mime-type",
		})
	} else if fileType == "application/octet-stream" {
		reader, err := file.Open()
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		mimeType, err := mimetype.DetectReader(reader)
		reader.Close()
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		if !mimeType.Is("video/mp4") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unsupported mime-type",
			})
		}
	}

	sid, issueCookie := jobCtr.sessionID(c)

	tmpFile, err := os.CreateTemp(jobCtr.tmpDir, "*.mp4")
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	tmpFileName := tmpFile.Name()
	tmpFile.Close()

	if err := c.SaveFile(file, tmpFileName); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	defer os.Remove(tmpFileName)

	id, err := jobCtr.srvJob.NewJob(context.TODO(), tmpFileName, file.Filename, parts, sid)
	if err != nil {
		if errors.Is(err, service.ErrBadPartCount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "bad part count",
			})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	if issueCookie {
		token, err := jobCtr.srvSession.NewToken(sid)
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		c.Cookie(&fiber.Cookie{
			Name:     jwtController.CookieName,
			Value:    token,
			HTTPOnly: true,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": id,
	})
}

// searchJobs returns job list filtered and ranked by query criteria.
func (jobCtr *jobController) searchJobs(c *fiber.Ctx) error {
	filter := models.JobFilter{
		Name:       c.Query("name"),
		MaxRespLen: c.QueryInt("res_len"),
	}

	jobs, err := jobCtr.srvJob.SearchJobs(context.TODO(), filter)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"jobs": jobs,
	})
}

// job returns job state. For completed jobs the answer carries
// download links, one per part.
func (jobCtr *jobController) job(c *fiber.Ctx) error {
	id := c.Params("id")

	job, err := jobCtr.srvJob.Job(context.TODO(), id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "job not found",
			})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	links := make([]string, 0, len(job.Segments))
	if job.Status == models.StatusCompleted {
		for _, seg := range job.Segments {
			links = append(links, fmt.Sprintf("/jobs/%s/parts/%d", job.ID, seg.Index))
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"job":   job,
		"links": links,
	})
}

// downloadPart sends one produced part as an attachment.
func (jobCtr *jobController) downloadPart(c *fiber.Ctx) error {
	id := c.Params("id")

	index, err := strconv.Atoi(c.Params("idx"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bad index",
		})
	}

	path, err := jobCtr.srvJob.SegmentPath(context.TODO(), id, index)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "job not found",
			})
		}
		if errors.Is(err, service.ErrSegmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "segment not found",
			})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Download(path)
}

// deleteJob deletes job with its outputs.
// Requires the session that created the job.
func (jobCtr *jobController) deleteJob(c *fiber.Ctx) error {
	id := c.Params("id")

	owner := jwtController.SessionID(c)

	if err := jobCtr.srvJob.DeleteJob(context.TODO(), id, owner); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "job not found",
			})
		}
		if errors.Is(err, service.ErrNotJobOwner) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusOK)
}

// sessionID returns session id from the request cookie,
// creating a new one when the cookie is absent or invalid.
func (jobCtr *jobController) sessionID(c *fiber.Ctx) (string, bool) {
	if cookie := c.Cookies(jwtController.CookieName); cookie != "" {
		if sid, err := jobCtr.srvSession.Parse(cookie); err == nil {
			return sid, false
		}
	}

	return uuid.NewString(), true
}
