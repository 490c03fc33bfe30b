package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/usecase"
)

const prompt = "> "

// Chat is satisfied by *usecase.TurnController.
type Chat interface {
	SetDraft(text string)
	Send(ctx context.Context, text string) usecase.Outcome
	State() usecase.State
	OpenDetail(ctx context.Context, item domain.RecommendationItem)
	CloseDetail()
}

// Accounts is satisfied by *usecase.AccountService.
type Accounts interface {
	Register(ctx context.Context, in domain.RegisterUserInput) (domain.User, error)
	Login(ctx context.Context, name string) (domain.User, error)
	LoginByID(ctx context.Context, id domain.UserID) (domain.User, error)
	Logout(ctx context.Context) error
	SignedIn() bool
}

// MapView is satisfied by *mapview.Board.
type MapView interface {
	CanView() bool
	Visible() bool
	Show(ctx context.Context) bool
	Close()
	Items() []domain.RecommendationItem
	IsSelected(benefitID string) bool
}

// Handler turns console input into chat turns, map and account actions and
// prints the resulting state.
type Handler struct {
	chat     Chat
	accounts Accounts
	board    MapView
	out      io.Writer

	printed int
}

func NewHandler(chat Chat, accounts Accounts, board MapView, out io.Writer) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat must not be nil")
	}
	if accounts == nil {
		return nil, errors.New("handler: accounts must not be nil")
	}
	if board == nil {
		return nil, errors.New("handler: map view must not be nil")
	}
	if out == nil {
		return nil, errors.New("handler: output must not be nil")
	}
	return &Handler{chat: chat, accounts: accounts, board: board, out: out}, nil
}

// Run reads lines from in until EOF, /quit or ctx is done.
func (h *Handler) Run(ctx context.Context, in io.Reader) error {
	h.renderMessages()
	if !h.accounts.SignedIn() {
		h.printf("/login 또는 /register 로 먼저 로그인해주세요.\n")
	}
	scanner := bufio.NewScanner(in)
	for {
		h.printf("%s", prompt)
		if !scanner.Scan() {
			h.printf("\n")
			return scanner.Err()
		}
		if !h.Handle(ctx, scanner.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Handle runs one input line and reports whether the session continues.
func (h *Handler) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		h.send(ctx, line)
		return true
	}

	cmd, rest, _ := strings.Cut(line, " ")
	args := strings.Fields(rest)
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/map":
		h.showMap(ctx)
	case "/select":
		h.selectItem(ctx, args)
	case "/detail":
		h.renderDetail()
	case "/close":
		h.chat.CloseDetail()
	case "/login":
		h.loginArgs(ctx, args)
	case "/register":
		h.registerArgs(ctx, args)
	case "/logout":
		_ = h.Logout(ctx)
	default:
		h.help()
	}
	return true
}

// Login signs in by name, or by id when id is set.
func (h *Handler) Login(ctx context.Context, name string, id domain.UserID) error {
	var (
		u   domain.User
		err error
	)
	if id != "" {
		u, err = h.accounts.LoginByID(ctx, id)
	} else {
		u, err = h.accounts.Login(ctx, name)
	}
	if err != nil {
		h.printError(err)
		return err
	}
	h.printf("%s님, 반가워요. (ID %s)\n", u.Name, u.ID)
	return nil
}

func (h *Handler) Register(ctx context.Context, in domain.RegisterUserInput) error {
	u, err := h.accounts.Register(ctx, in)
	if err != nil {
		h.printError(err)
		return err
	}
	h.printf("등록되었어요. 사용자 ID: %s\n", u.ID)
	return nil
}

func (h *Handler) Logout(ctx context.Context) error {
	if err := h.accounts.Logout(ctx); err != nil {
		h.printError(err)
		return err
	}
	h.printf("로그아웃되었어요.\n")
	return nil
}

func (h *Handler) send(ctx context.Context, text string) {
	h.chat.SetDraft(text)
	out := h.chat.Send(ctx, text)
	if out == usecase.OutcomeIgnored {
		if st := h.chat.State(); st.Sending() {
			h.printf("! 이전 질문에 답하는 중이에요. 입력은 보관했어요: %s\n", st.Draft)
		}
		return
	}
	h.renderMessages()
	if out == usecase.OutcomeFailed {
		if msg := h.chat.State().Err; msg != "" {
			h.printf("! %s\n", msg)
		}
	}
}

// showMap toggles the map. A map that cannot be loaded is logged by the
// board and leaves the console unchanged.
func (h *Handler) showMap(ctx context.Context) {
	if h.board.Visible() {
		h.board.Close()
		h.printf("지도를 닫았어요.\n")
		return
	}
	if !h.board.CanView() {
		h.printf("지도에 표시할 정책이 없어요.\n")
		return
	}
	h.board.Show(ctx)
}

func (h *Handler) selectItem(ctx context.Context, args []string) {
	items := h.chat.State().Latest
	if len(items) == 0 {
		items = h.board.Items()
	}
	if len(args) != 1 {
		h.printf("사용법: /select <번호>\n")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(items) {
		h.printf("번호를 확인해주세요. (1-%d)\n", len(items))
		return
	}
	h.chat.OpenDetail(ctx, items[n-1])
	h.renderCards(items)
	h.renderDetail()
}

func (h *Handler) loginArgs(ctx context.Context, args []string) {
	switch {
	case len(args) == 2 && args[0] == "--id":
		_ = h.Login(ctx, "", domain.UserID(args[1]))
	case len(args) > 0 && args[0] != "--id":
		_ = h.Login(ctx, strings.Join(args, " "), "")
	default:
		h.printf("사용법: /login <이름> | /login --id <번호>\n")
	}
}

func (h *Handler) registerArgs(ctx context.Context, args []string) {
	if len(args) < 3 {
		h.printf("사용법: /register <이름> <나이> <거주지> [태그...]\n")
		return
	}
	age, err := strconv.Atoi(args[1])
	if err != nil {
		h.printf("나이는 숫자로 입력해주세요.\n")
		return
	}
	_ = h.Register(ctx, domain.RegisterUserInput{
		Name:      args[0],
		Age:       age,
		Residence: args[2],
		BaseTags:  args[3:],
	})
}

func (h *Handler) help() {
	h.printf("명령어: /map(열기/닫기) /select <번호> /detail /close /login <이름>|--id <번호> /register <이름> <나이> <거주지> [태그...] /logout /quit\n")
}

func (h *Handler) printError(err error) {
	if msg := usecase.UserMessage(err); msg != "" {
		h.printf("! %s\n", msg)
		return
	}
	h.printf("! %v\n", err)
}

func (h *Handler) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(h.out, format, args...)
}
