package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"wanderlog/internal/models"
	"wanderlog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// flexBool accepts true/false and 1/0, either bare or as strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	v, err := parseFlexBool(raw)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

func errNotBoolean() error {
	return models.NewFieldValidationError("is_published", "The is published field must be true or false.")
}

func parseFlexBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, errNotBoolean()
}

// storyRequest is the JSON body of story create and update requests.
type storyRequest struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Location    *string   `json:"location"`
	Type        *string   `json:"type"`
	ImageURL    *string   `json:"imageUrl"`
	IsPublished *flexBool `json:"is_published"`
}

func (r storyRequest) input() service.StoryInput {
	in := service.StoryInput{
		Title:    r.Title,
		Content:  r.Content,
		Location: r.Location,
		Type:     r.Type,
		ImageURL: r.ImageURL,
	}
	if r.IsPublished != nil {
		v := bool(*r.IsPublished)
		in.IsPublished = &v
	}
	return in
}

// parseStoryInput reads a story payload from JSON or multipart/form-data.
// Absent fields stay nil so updates can be partial.
func parseStoryInput(c *fiber.Ctx) (service.StoryInput, error) {
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return parseStoryForm(c)
	}

	var req storyRequest
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return req.input(), nil
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return service.StoryInput{}, err
		}
		return service.StoryInput{}, models.NewBadRequestError("Invalid request body")
	}
	return req.input(), nil
}

func parseStoryForm(c *fiber.Ctx) (service.StoryInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return service.StoryInput{}, models.NewBadRequestError("Invalid multipart form")
	}

	field := func(name string) *string {
		values, ok := form.Value[name]
		if !ok || len(values) == 0 {
			return nil
		}
		v := values[0]
		return &v
	}

	in := service.StoryInput{
		Title:    field("title"),
		Content:  field("content"),
		Location: field("location"),
		Type:     field("type"),
		ImageURL: field("imageUrl"),
	}
	if raw := field("is_published"); raw != nil {
		v, err := parseFlexBool(*raw)
		if err != nil {
			return service.StoryInput{}, err
		}
		in.IsPublished = &v
	}

	if files := form.File["image"]; len(files) > 0 {
		content, err := readUpload(files[0])
		if err != nil {
			return service.StoryInput{}, models.NewFieldValidationError("image", "The image failed to upload.")
		}
		in.Image = content
	}
	return in, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
