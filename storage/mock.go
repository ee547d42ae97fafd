package storage

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/google/uuid"

	"github.com/itiky/collaborate-canvas/model"
)

var (
	mockFills = []string{"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6", "#111827"}

	mockBackgrounds = []string{"#ffffff", "#f3f4f6", "#fef3c7", "#e0f2fe"}

	mockSizes = [][2]int{{1080, 1080}, {1080, 1920}, {1920, 1080}, {1200, 628}}

	mockUsers = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Barbara Liskov", "Ken Thompson"}

	mockCommentTexts = []string{"can you check the colors?", "looks good to me", "the heading is too small", "let's move this to the left"}
)

// GenAndSaveDesigns generates random designs (with a comment each) and mentionable users and saves them to the database.
func GenAndSaveDesigns(ctx context.Context, dbPath string, designsCount, elementsCount int) error {
	if designsCount <= 0 {
		return fmt.Errorf("%s: must be GT 0", "designsCount")
	}
	if elementsCount < 0 {
		return fmt.Errorf("%s: must be GTE 0", "elementsCount")
	}

	log.Printf("Opening database...")
	s, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("storage.Open: %w", err)
	}
	defer s.Close()

	log.Printf("Creating users...")
	users := make([]model.User, 0, len(mockUsers))
	for _, name := range mockUsers {
		u, err := s.CreateUser(ctx, model.User{Name: name})
		if err != nil {
			return fmt.Errorf("user (%s): %w", name, err)
		}
		users = append(users, u)
	}

	log.Printf("Creating designs...")
	for i := 0; i < designsCount; i++ {
		req := NewMockDesign(fmt.Sprintf("Design #%d", i+1), elementsCount)
		d, err := s.CreateDesign(ctx, req)
		if err != nil {
			return fmt.Errorf("design [%d]: %w", i, err)
		}

		if _, err := s.CreateComment(ctx, NewMockComment(d.Id, users)); err != nil {
			return fmt.Errorf("design [%d]: comment: %w", i, err)
		}
	}

	log.Printf("Done: %d designs, %d users", designsCount, len(users))

	return nil
}

// NewMockDesign builds a design creation request with n random elements.
func NewMockDesign(name string, n int) model.DesignCreate {
	size := mockSizes[rand.Intn(len(mockSizes))]

	req := model.DesignCreate{
		Name:             name,
		Width:            size[0],
		Height:           size[1],
		CanvasBackground: mockBackgrounds[rand.Intn(len(mockBackgrounds))],
		Elements:         make([]model.Element, 0, n),
	}
	for i := 0; i < n; i++ {
		req.Elements = append(req.Elements, NewMockElement(size[0], size[1]))
	}

	return req
}

// NewMockComment builds a comment creation request by a random user mentioning another one.
func NewMockComment(designId string, users []model.User) model.CommentCreate {
	author := users[rand.Intn(len(users))]
	mentioned := users[rand.Intn(len(users))]

	return model.CommentCreate{
		DesignId: designId,
		AuthorId: author.Id,
		Text:     fmt.Sprintf("@%s %s", mentioned.Name, mockCommentTexts[rand.Intn(len(mockCommentTexts))]),
		Mentions: []string{mentioned.Id},
	}
}

// NewMockElement builds a random element of a random known type within the canvas bounds.
func NewMockElement(width, height int) model.Element {
	elType := model.ElementTypes[rand.Intn(len(model.ElementTypes))]

	el := model.Element{
		Id:       uuid.New().String(),
		Type:     elType,
		X:        randCoord(width),
		Y:        randCoord(height),
		Rotation: float64(rand.Intn(360)),
		Fill:     mockFills[rand.Intn(len(mockFills))],
		Opacity:  model.Float(1),
	}

	switch elType {
	case model.RectangleElementType:
		el.Width, el.Height = model.Float(200), model.Float(150)
	case model.CircleElementType:
		el.Radius = model.Float(75)
	case model.TriangleElementType:
		el.Radius, el.Sides = model.Float(75), model.Int(3)
	case model.PentagonElementType:
		el.Radius, el.Sides = model.Float(75), model.Int(5)
	case model.HexagonElementType:
		el.Radius, el.Sides = model.Float(75), model.Int(6)
	case model.StarElementType:
		el.InnerRadius, el.OuterRadius = model.Float(30), model.Float(75)
	case model.LineElementType, model.ArrowElementType:
		el.Points = []float64{0, 0, 200, 0}
		el.Stroke, el.StrokeWidth = model.Str(el.Fill), model.Float(4)
	case model.TextElementType:
		el.Text, el.FontSize, el.FontFamily = model.Str("Add a heading"), model.Float(48), model.Str("Inter")
	case model.ImageElementType:
		el.Width, el.Height = model.Float(400), model.Float(300)
		el.ImageUrl = model.Str("https://images.unsplash.com/photo-1506744038136-46273834b3fb")
	}

	return el
}

// randCoord returns a random coordinate within [0, size), 0 for an empty side.
func randCoord(size int) float64 {
	if size <= 0 {
		return 0
	}

	return float64(rand.Intn(size))
}
