package client

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/itiky/collaborate-canvas/canvas"
	"github.com/itiky/collaborate-canvas/model"
	"github.com/itiky/collaborate-canvas/storage"
)

type editOperation string

const (
	addEditOp        editOperation = "add"
	moveEditOp       editOperation = "move"
	deleteEditOp     editOperation = "delete"
	renameEditOp     editOperation = "rename"
	backgroundEditOp editOperation = "background"
	undoEditOp       editOperation = "undo"
	redoEditOp       editOperation = "redo"
)

var editOperations = []editOperation{
	addEditOp, addEditOp, moveEditOp, moveEditOp, moveEditOp,
	deleteEditOp, renameEditOp, backgroundEditOp, undoEditOp, redoEditOp,
}

// sendUpdates performs a random number of random local edits.
func (c *Client) sendUpdates() {
	ed := c.session.Editor()

	sendN := rand.Intn(c.opsSendMax) + 1
	performed := make(map[editOperation]int, len(editOperations))
	for i := 0; i < sendN; i++ {
		op := editOperations[rand.Intn(len(editOperations))]
		snapshot := ed.Canvas().Snapshot()
		if len(snapshot.Elements) == 0 && op != backgroundEditOp {
			op = addEditOp
		}
		if (op == addEditOp || op == moveEditOp) && (snapshot.CanvasWidth <= 0 || snapshot.CanvasHeight <= 0) {
			// Nowhere to place an element
			op = backgroundEditOp
		}

		getIdFromSnapshot := func() string {
			return snapshot.Elements[rand.Intn(len(snapshot.Elements))].Id
		}

		switch op {
		case addEditOp:
			ed.Dispatch(canvas.AddElement{Element: storage.NewMockElement(snapshot.CanvasWidth, snapshot.CanvasHeight)})
		case moveEditOp:
			ed.Dispatch(canvas.UpdateElement{
				Id: getIdFromSnapshot(),
				Changes: model.ElementPatch{
					X: model.Float(float64(rand.Intn(snapshot.CanvasWidth))),
					Y: model.Float(float64(rand.Intn(snapshot.CanvasHeight))),
				},
			})
		case deleteEditOp:
			ed.Dispatch(canvas.DeleteElement{Id: getIdFromSnapshot()})
		case renameEditOp:
			ed.Dispatch(canvas.RenameElement{Id: getIdFromSnapshot(), Name: fmt.Sprintf("Layer %d", rand.Intn(100))})
		case backgroundEditOp:
			ed.Dispatch(canvas.SetBackground{Background: fmt.Sprintf("#%06x", rand.Intn(0x1000000))})
		case undoEditOp:
			if !ed.History().CanUndo() {
				continue
			}
			ed.Undo()
		case redoEditOp:
			if !ed.History().CanRedo() {
				continue
			}
			ed.Redo()
		}
		performed[op]++
	}

	log.Printf("%s: edits performed: %v (%s, %d users)", c.String(), performed, ed.History(), ed.ActiveUsers())
}

// save persists the design state.
func (c *Client) save(ctx context.Context) error {
	if !c.session.Editor().Dirty() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.session.Save(ctx); err != nil {
		return err
	}
	log.Printf("%s: design saved", c.String())

	return nil
}

// initComments picks the first known user as the comments author.
func (c *Client) initComments(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	users, err := c.api.SearchUsers(ctx, "", 1)
	if err != nil {
		return fmt.Errorf("author search: %w", err)
	}
	if len(users) == 0 {
		return fmt.Errorf("no users")
	}

	composer, err := NewCommentComposer(c.api, c.designId, users[0].Id, DefaultDebounceDelay, 5, c.onMentionSuggestions)
	if err != nil {
		return err
	}
	c.comments = composer
	log.Printf("%s: commenting as %s", c.String(), users[0].Name)

	return nil
}

// comment starts typing a comment mentioning someone, it is posted once the mention gets a suggestion.
func (c *Client) comment() {
	if c.comments == nil {
		return
	}

	c.comments.SetText(fmt.Sprintf("Edit round %d is saved, @%c", c.ticks, 'a'+rune(rand.Intn(26))))
}

func (c *Client) onMentionSuggestions(_ string, users []model.User) {
	if len(users) == 0 {
		return
	}
	c.comments.Pick(users[rand.Intn(len(users))])

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	comment, err := c.comments.Submit(ctx)
	if err != nil {
		log.Printf("%s: comment: %v", c.String(), err)
		return
	}
	log.Printf("%s: %s posted", c.String(), comment)
}
