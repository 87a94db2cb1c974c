package gateway

import (
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

type chatExtension struct {
	URI         string
	Description string
}

type chatPage struct {
	Name        string
	Description string
	Extensions  []chatExtension
}

// pageData lists the extensions the agent card advertises, sorted by URI.
func (g *Gateway) pageData() chatPage {
	if g.handler == nil {
		return chatPage{Name: "Agent unavailable"}
	}
	card := g.handler.Card()
	page := chatPage{Name: card.Name, Description: card.Description}
	for uri, md := range card.Capabilities.Extensions {
		desc, _ := md["description"].(string)
		page.Extensions = append(page.Extensions, chatExtension{URI: uri, Description: desc})
	}
	slices.SortFunc(page.Extensions, func(a, b chatExtension) int {
		return strings.Compare(a.URI, b.URI)
	})
	return page
}

func (g *Gateway) handleWebChatPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chatTemplate.Execute(w, g.pageData()); err != nil {
		g.logger.Warn("rendering chat page", slog.String("err", err.Error()))
	}
}

var chatTemplate = template.Must(template.New("chat").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Name}}</title>
<style>
  body { margin: 0; font: 15px/1.45 Georgia, "Times New Roman", serif; background: #faf7f2; color: #2b2b2b; }
  .layout { display: grid; grid-template-columns: 1fr 300px; height: 100vh; }
  main { display: flex; flex-direction: column; min-height: 0; }
  .banner { padding: 18px 28px; border-bottom: 2px solid #e8dfd0; }
  .banner h1 { margin: 0; font-size: 22px; letter-spacing: .02em; }
  .banner p { margin: 4px 0 0; color: #7a6f5f; font-size: 13px; }
  #transcript { flex: 1; overflow-y: auto; padding: 20px 28px; list-style: none; margin: 0; }
  #transcript li { margin: 0 0 14px; }
  .who { display: block; font: 11px/1 ui-monospace, Menlo, monospace; text-transform: uppercase; color: #a0937d; margin-bottom: 3px; }
  .text { white-space: pre-wrap; }
  .turn-agent .text { border-left: 3px solid #c2703d; padding-left: 10px; }
  .turn-fail .text { color: #9b2c2c; }
  .badges { margin-top: 5px; }
  .badge { display: inline-block; font: 11px ui-monospace, Menlo, monospace; background: #efe6d6; border-radius: 3px; padding: 1px 6px; margin-right: 4px; }
  form { display: flex; gap: 8px; padding: 14px 28px; border-top: 2px solid #e8dfd0; }
  #prompt { flex: 1; font: inherit; padding: 9px 12px; border: 1px solid #d6cab5; background: #fff; }
  button { font: inherit; padding: 9px 18px; border: 0; background: #c2703d; color: #fff; cursor: pointer; }
  button:disabled { background: #d9b9a2; cursor: wait; }
  aside { border-left: 2px solid #e8dfd0; padding: 18px; overflow-y: auto; background: #f3eee5; }
  aside h2 { margin: 0 0 10px; font-size: 15px; }
  aside label { display: block; margin-bottom: 10px; font-size: 13px; }
  aside code { display: block; font-size: 10px; color: #7a6f5f; word-break: break-all; }
  #other { width: 100%; box-sizing: border-box; font-size: 12px; padding: 6px; border: 1px solid #d6cab5; }
  #state { font-size: 12px; color: #7a6f5f; margin-top: 14px; }
</style>
</head>
<body>
<div class="layout">
<main>
  <div class="banner"><h1>{{.Name}}</h1>{{with .Description}}<p>{{.}}</p>{{end}}</div>
  <ul id="transcript"></ul>
  <form id="compose">
    <input id="prompt" placeholder="Try: give me a formal greeting in French" autocomplete="off">
    <button id="go" type="submit">Greet</button>
  </form>
</main>
<aside>
  <h2>Extensions</h2>
  {{range .Extensions}}<label><input type="checkbox" name="ext" value="{{.URI}}"> {{or .Description "extension"}}<code>{{.URI}}</code></label>
  {{else}}<p>This agent advertises no extensions.</p>
  {{end}}<label>Other URIs<input id="other" placeholder="comma separated"></label>
  <div id="state">connecting</div>
</aside>
</div>
<script>
(() => {
  const transcript = document.getElementById('transcript');
  const form = document.getElementById('compose');
  const prompt = document.getElementById('prompt');
  const go = document.getElementById('go');
  const state = document.getElementById('state');
  let socket, pending = null;

  function entry(who, cls, text) {
    const li = document.createElement('li');
    li.className = cls;
    li.innerHTML = '<span class="who"></span><div class="text"></div>';
    li.querySelector('.who').textContent = who;
    li.querySelector('.text').textContent = text;
    transcript.appendChild(li);
    transcript.scrollTop = transcript.scrollHeight;
    return li;
  }

  function requested() {
    const uris = [...document.querySelectorAll('input[name=ext]:checked')].map((el) => el.value);
    return uris.concat(document.getElementById('other').value.split(',').map((s) => s.trim()).filter(Boolean));
  }

  function idle() {
    pending = null;
    go.disabled = false;
    prompt.focus();
  }

  function open() {
    socket = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    socket.onopen = () => { state.textContent = 'connected'; };
    socket.onclose = () => { state.textContent = 'reconnecting'; setTimeout(open, 2000); };
    socket.onmessage = (e) => {
      const frame = JSON.parse(e.data);
      if (frame.type === 'session') {
        state.textContent = 'session ' + frame.session_id;
      } else if (frame.type === 'token') {
        pending = pending || entry('agent', 'turn-agent', '');
        pending.querySelector('.text').textContent += frame.content;
      } else if (frame.type === 'done') {
        if (pending && frame.extensions && frame.extensions.length) {
          const badges = document.createElement('div');
          badges.className = 'badges';
          frame.extensions.forEach((uri) => {
            const b = document.createElement('span');
            b.className = 'badge';
            b.textContent = uri.split('://').pop();
            badges.appendChild(b);
          });
          pending.appendChild(badges);
        }
        idle();
      } else if (frame.type === 'error') {
        entry('error', 'turn-fail', frame.error);
        idle();
      }
    };
  }

  form.addEventListener('submit', (e) => {
    e.preventDefault();
    const text = prompt.value.trim();
    if (!text || !socket || socket.readyState !== WebSocket.OPEN) return;
    entry('you', 'turn-user', text);
    socket.send(JSON.stringify({ type: 'message', content: text, extensions: requested() }));
    prompt.value = '';
    go.disabled = true;
  });
  open();
})();
</script>
</body>
</html>
`))
