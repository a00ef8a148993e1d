package showdown

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tailglowbot/tailglow/pkg/agent"
	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

const defaultLoginURL = "https://play.pokemonshowdown.com/action.php"

// Decider produces an action for a battle snapshot. agent.Session satisfies
// this.
type Decider interface {
	Decide(ctx context.Context, snap *battle.Snapshot) (*agent.Decision, error)
}

// Options configures a Client.
type Options struct {
	URL      string // websocket endpoint
	LoginURL string // defaults to the official login server
	Username string
	Password string
	Format   string

	// MaxBattles stops the client after this many finished battles.
	// Zero means run until the context is cancelled.
	MaxBattles int

	// DecisionTimeout bounds one turn's pipeline run. Defaults to 90s,
	// well inside the simulator's move timer.
	DecisionTimeout time.Duration
}

// Client connects to a Showdown server, searches for battles, and drives a
// Decider for every turn of each battle.
type Client struct {
	opts       Options
	pokedex    *dex.Pokedex
	newDecider func(roomID string) Decider
	logger     *slog.Logger

	conn  *websocket.Conn
	httpc *http.Client

	rooms     map[string]*battleRoom
	searching bool
	played    int
	won       int
}

type battleRoom struct {
	room    *Room
	decider Decider
	pending *Request
}

// NewClient creates a client. newDecider is called once per battle room to
// build the per-battle decision state.
func NewClient(opts Options, pokedex *dex.Pokedex, newDecider func(roomID string) Decider, logger *slog.Logger) *Client {
	if opts.LoginURL == "" {
		opts.LoginURL = defaultLoginURL
	}
	if opts.DecisionTimeout <= 0 {
		opts.DecisionTimeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:       opts,
		pokedex:    pokedex,
		newDecider: newDecider,
		logger:     logger,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		rooms:      make(map[string]*battleRoom),
	}
}

// Run connects and processes messages until the context is cancelled, the
// connection drops, or MaxBattles battles have finished.
func (c *Client) Run(ctx context.Context) error {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	c.logger.Info("connecting to showdown", "url", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn
	defer func() { _ = conn.Close() }()

	// Unblock ReadMessage when the context ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read failed: %w", err)
		}
		for _, msg := range ParseFrame(string(raw)) {
			c.handle(ctx, msg)
		}
		if c.opts.MaxBattles > 0 && c.played >= c.opts.MaxBattles && len(c.rooms) == 0 {
			c.logger.Info("all battles finished",
				"played", c.played, "won", c.won)
			return nil
		}
	}
}

// Record returns battles played and won so far.
func (c *Client) Record() (played, won int) { return c.played, c.won }

func (c *Client) handle(ctx context.Context, msg Message) {
	if strings.HasPrefix(msg.Room, "battle-") {
		c.handleBattle(ctx, msg)
		return
	}

	switch msg.Command {
	case "challstr":
		challstr := strings.Join(msg.Args, "|")
		if err := c.login(ctx, challstr); err != nil {
			c.logger.Error("login failed", "error", err)
		}
	case "updateuser":
		name := strings.TrimSpace(strings.TrimLeft(msg.Arg(0), " @+*#&~!"))
		if strings.EqualFold(name, c.opts.Username) && !c.searching {
			c.search()
		}
	case "popup", "nametaken":
		c.logger.Warn("server message", "command", msg.Command,
			"text", strings.Join(msg.Args, " "))
	}
}

func (c *Client) handleBattle(ctx context.Context, msg Message) {
	br, ok := c.rooms[msg.Room]
	if !ok {
		if msg.Command != "init" {
			return
		}
		br = &battleRoom{
			room:    NewRoom(msg.Room, c.opts.Username, c.pokedex, c.logger),
			decider: c.newDecider(msg.Room),
		}
		c.rooms[msg.Room] = br
		c.logger.Info("battle started", "battle", msg.Room)
		return
	}

	switch msg.Command {
	case "request":
		if msg.Arg(0) == "" {
			return
		}
		req, err := ParseRequest(msg.Arg(0))
		if err != nil {
			c.logger.Error("bad request payload", "battle", msg.Room, "error", err)
			return
		}
		if req.Wait {
			return
		}
		br.room.SetRequest(req)
		if req.TeamPreview {
			c.send(fmt.Sprintf("%s|/choose team 123456|%d", msg.Room, req.RQID))
			return
		}
		if req.MustSwitch() {
			// A forced switch gets no turn marker; act now.
			c.decide(ctx, msg.Room, br, req)
			return
		}
		// Normal requests arrive before the turn's events; hold the
		// decision until the turn marker so the room state is current.
		br.pending = req
	case "turn":
		br.room.Apply(msg)
		if req := br.pending; req != nil {
			br.pending = nil
			c.decide(ctx, msg.Room, br, req)
		}
	case "error":
		text := strings.Join(msg.Args, "|")
		c.logger.Warn("choice rejected", "battle", msg.Room, "error", text)
		if strings.Contains(text, "[Invalid choice]") {
			if req := br.room.Request(); req != nil {
				c.send(fmt.Sprintf("%s|/choose default|%d", msg.Room, req.RQID))
			}
		}
	case "deinit":
		delete(c.rooms, msg.Room)
	case "win", "tie":
		br.room.Apply(msg)
		c.finishBattle(msg.Room, br)
	default:
		br.room.Apply(msg)
	}
}

func (c *Client) decide(ctx context.Context, roomID string, br *battleRoom, req *Request) {
	snap := br.room.Snapshot()
	if snap == nil {
		return
	}

	dctx, cancel := context.WithTimeout(ctx, c.opts.DecisionTimeout)
	defer cancel()

	decision, err := br.decider.Decide(dctx, snap)
	if err != nil {
		c.logger.Error("decision failed, choosing default",
			"battle", roomID, "turn", snap.Turn, "error", err)
		c.send(fmt.Sprintf("%s|/choose default|%d", roomID, req.RQID))
		return
	}

	// Reasoning goes to the battle chat first. Best effort: a failed chat
	// line never blocks the move. Newlines would split the frame, so the
	// text is flattened to one line.
	if decision.Reasoning != "" {
		chat := strings.Join(strings.Fields(decision.Reasoning), " ")
		c.send(fmt.Sprintf("%s|[T%d] %s", roomID, snap.Turn, chat))
	}

	c.send(fmt.Sprintf("%s|/choose %s|%d", roomID, chooseCommand(decision, req), req.RQID))
}

// chooseCommand renders a decision as a simulator choice string.
func chooseCommand(d *agent.Decision, req *Request) string {
	if d.Type == agent.ActionSwitch {
		if slot := switchSlot(d.Target, req); slot > 0 {
			return fmt.Sprintf("switch %d", slot)
		}
		return "default"
	}
	cmd := "move " + d.Target
	if d.Tera {
		cmd += " terastallize"
	}
	return cmd
}

// switchSlot finds the 1-based team slot for a switch target.
func switchSlot(target string, req *Request) int {
	id := dex.NormalizeID(target)
	for i, p := range req.Side.Pokemon {
		species, _ := parseDetails(p.Details)
		sid := dex.NormalizeID(species)
		if sid == id || strings.HasPrefix(sid, id) || strings.HasPrefix(id, sid) {
			return i + 1
		}
	}
	return 0
}

func (c *Client) finishBattle(roomID string, br *battleRoom) {
	c.played++
	if br.room.Won() {
		c.won++
	}
	result := "LOST"
	if br.room.Won() {
		result = "WON"
	}
	c.logger.Info("battle finished",
		"battle", roomID,
		"result", result,
		"played", c.played,
		"won", c.won)

	c.send(fmt.Sprintf("%s|/leave", roomID))
	delete(c.rooms, roomID)

	if c.opts.MaxBattles == 0 || c.played < c.opts.MaxBattles {
		c.search()
	}
}

func (c *Client) search() {
	c.searching = true
	c.logger.Info("searching for battle", "format", c.opts.Format)
	c.send("|/search " + c.opts.Format)
}

func (c *Client) send(message string) {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		c.logger.Error("send failed", "error", err)
	}
}

// login answers the server's challstr with an assertion from the login
// server, then claims our username.
func (c *Client) login(ctx context.Context, challstr string) error {
	form := url.Values{}
	if c.opts.Password != "" {
		form.Set("act", "login")
		form.Set("name", c.opts.Username)
		form.Set("pass", c.opts.Password)
	} else {
		form.Set("act", "getassertion")
		form.Set("userid", normalizeName(c.opts.Username))
	}
	form.Set("challstr", challstr)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.opts.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	assertion, err := parseAssertion(string(body), c.opts.Password != "")
	if err != nil {
		return err
	}

	c.send(fmt.Sprintf("|/trn %s,0,%s", c.opts.Username, assertion))
	return nil
}

// parseAssertion extracts the login assertion. Password logins return "]"
// followed by JSON; guest logins return the assertion directly.
func parseAssertion(body string, withPassword bool) (string, error) {
	if withPassword {
		jsonPart, found := strings.CutPrefix(body, "]")
		if !found {
			return "", fmt.Errorf("unexpected login response: %s", truncateBody(body))
		}
		var parsed struct {
			ActionSuccess bool   `json:"actionsuccess"`
			Assertion     string `json:"assertion"`
		}
		if err := json.Unmarshal([]byte(jsonPart), &parsed); err != nil {
			return "", fmt.Errorf("failed to decode login response: %w", err)
		}
		if !parsed.ActionSuccess || parsed.Assertion == "" {
			return "", fmt.Errorf("login rejected by server")
		}
		return parsed.Assertion, nil
	}

	if body == "" || strings.HasPrefix(body, ";") {
		return "", fmt.Errorf("username requires a password")
	}
	return body, nil
}

func truncateBody(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
