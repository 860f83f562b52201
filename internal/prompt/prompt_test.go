package prompt

import (
	"strings"
	"testing"

	"github.com/campointeligente/chatbot/internal/models"
	"github.com/campointeligente/chatbot/internal/store"
)

func TestResolve(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := st.SavePrompt(models.PromptTemplate{Key: "greeting", Text: "Olá, {user_nome}!"}); err != nil {
		t.Fatalf("SavePrompt() error = %v", err)
	}
	r := NewResolver(st)

	if got := r.Resolve("greeting"); got != "Olá, {user_nome}!" {
		t.Errorf("Resolve() = %q, want raw template text", got)
	}
}

func TestResolveMissingKeyReturnsSentinel(t *testing.T) {
	r := NewResolver(store.NewInMemoryStore())

	got := r.Resolve("no_such_key")
	if !strings.Contains(got, "no_such_key") {
		t.Errorf("Resolve() = %q, want sentinel naming the missing key", got)
	}
	if !strings.Contains(got, "não configurado") {
		t.Errorf("Resolve() = %q, want the not-configured sentinel", got)
	}
}

func TestResolveWith(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := st.SavePrompt(models.PromptTemplate{Key: "greeting", Text: "Olá, {user_nome}! Você está em {cidade}."}); err != nil {
		t.Fatalf("SavePrompt() error = %v", err)
	}
	r := NewResolver(st)

	got := r.ResolveWith("greeting", map[string]string{"user_nome": "Ana", "cidade": "Recife"})
	if got != "Olá, Ana! Você está em Recife." {
		t.Errorf("ResolveWith() = %q", got)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]string
		want string
	}{
		{"no vars", "texto fixo", nil, "texto fixo"},
		{"single", "Olá, {user_nome}!", map[string]string{"user_nome": "Ana"}, "Olá, Ana!"},
		{"repeated placeholder", "{x} e {x}", map[string]string{"x": "a"}, "a e a"},
		{"unknown placeholder kept", "Olá, {user_nome}!", map[string]string{"cidade": "Recife"}, "Olá, {user_nome}!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.text, tt.vars); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}
