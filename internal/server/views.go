package server

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"

	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	flashCookie = "flash"
	flashMaxAge = 60
)

// flash survives exactly one redirect.
type flash struct {
	Message  string              `json:"message,omitempty"`
	Error    string              `json:"error,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Username string              `json:"username,omitempty"`
}

type prioritySelect struct {
	Priorities []models.Priority
	Selected   models.Priority
}

func loadTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"pages": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func newPrioritySelect(selected models.Priority) prioritySelect {
	if selected == "" {
		selected = models.PriorityLow
	}
	return prioritySelect{Priorities: models.Priorities(), Selected: selected}
}

// render adds the data every page needs and writes the named template.
func (api *TodoAPI) render(ctx *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	if claims := currentUser(ctx); claims != nil {
		data["User"] = claims.Username
	}
	if _, ok := data["Flash"]; !ok {
		if f := popFlash(ctx); f != nil {
			data["Flash"] = f
		}
	}
	ctx.HTML(status, name, data)
}

func (api *TodoAPI) setFlash(ctx *gin.Context, f flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), flashMaxAge, "/", "", api.secureCookies, true)
}

// popFlash reads and clears the flash cookie. A missing or corrupt cookie yields nil.
func popFlash(ctx *gin.Context) *flash {
	value, err := ctx.Cookie(flashCookie)
	if err != nil || value == "" {
		return nil
	}
	ctx.SetCookie(flashCookie, "", -1, "/", "", false, true)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}
