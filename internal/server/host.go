package server

import (
	"html/template"
	"net/http"

	"github.com/conneroisu/jsxlive/internal/version"
)

type hostData struct {
	Version   string
	Generator string
}

var hostTemplate = template.Must(template.New("host").Parse(hostHTML))

func (s *PreviewServer) handleHost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := hostData{Version: version.GetShortVersion(), Generator: s.generatorName()}
	if err := hostTemplate.Execute(w, data); err != nil {
		s.logger.Error(r.Context(), err, "Failed to render host page")
	}
}

// hostHTML is the page that frames the sandbox. The frame gets scripts but
// no same-origin privileges, so everything it says arrives by postMessage and
// is forwarded to the bridge over the websocket.
const hostHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>jsxlive</title>
<style>
* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, -apple-system, sans-serif; background: #f3f4f6; color: #111827; height: 100vh; display: flex; flex-direction: column; }
header { display: flex; align-items: center; gap: 12px; padding: 10px 16px; background: #111827; color: #f9fafb; }
header h1 { font-size: 16px; margin: 0; }
header .spacer { flex: 1; }
header button, header label { font-size: 13px; color: inherit; }
.pill { font-size: 12px; padding: 2px 8px; border-radius: 999px; background: #374151; }
.pill.ready { background: #047857; }
.pill.error { background: #b91c1c; }
.pill.rendering { background: #b45309; }
main { flex: 1; display: flex; min-height: 0; }
#stage { flex: 1; display: flex; flex-direction: column; min-width: 0; }
#banner { display: none; margin: 12px; padding: 10px 12px; border: 1px solid #fca5a5; background: #fef2f2; color: #991b1b; border-radius: 6px; font-size: 13px; }
#banner pre { display: none; white-space: pre-wrap; font-size: 12px; margin: 8px 0 0; }
#banner.expanded pre { display: block; }
#banner .actions { margin-top: 6px; display: flex; gap: 8px; }
iframe { flex: 1; border: 0; background: #fff; margin: 12px; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
aside { width: 340px; display: flex; flex-direction: column; border-left: 1px solid #e5e7eb; background: #fff; }
#panel { display: none; padding: 12px; border-bottom: 1px solid #e5e7eb; overflow-y: auto; max-height: 55%; }
#panel h2, #chat h2 { font-size: 14px; margin: 0 0 8px; }
#panel .field { display: flex; align-items: center; justify-content: space-between; gap: 8px; margin: 6px 0; font-size: 12px; }
#panel .field input[type=range] { flex: 1; }
#panel .note { font-size: 12px; color: #6b7280; }
#chat { flex: 1; display: flex; flex-direction: column; padding: 12px; min-height: 0; }
#transcript { flex: 1; overflow-y: auto; font-size: 13px; }
#transcript .msg { margin: 6px 0; padding: 8px; border-radius: 6px; }
#transcript .user { background: #eff6ff; }
#transcript .assistant { background: #f9fafb; }
#transcript pre { overflow-x: auto; font-size: 12px; }
form { display: flex; gap: 6px; margin-top: 8px; }
form input[type=text] { flex: 1; padding: 6px; }
</style>
</head>
<body>
<header>
  <h1>jsxlive</h1>
  <span class="pill" id="status">empty</span>
  <span class="pill" id="component"></span>
  <span class="spacer"></span>
  <label><input type="checkbox" id="grid"> Grid</label>
  <button type="button" id="reload">Reload</button>
  <span class="pill">{{.Version}}</span>
</header>
<main>
  <section id="stage">
    <div id="banner">
      <strong>Preview error:</strong> <span id="banner-message"></span>
      <div class="actions">
        <button type="button" id="banner-toggle">Show details</button>
        <button type="button" id="banner-dismiss">Dismiss</button>
      </div>
      <pre id="banner-stack"></pre>
    </div>
    <iframe id="preview" title="Component preview" sandbox="allow-scripts"></iframe>
  </section>
  <aside>
    <div id="panel">
      <h2 id="panel-title"></h2>
      <div id="panel-fields"></div>
      <form id="element-form">
        <input type="text" id="element-input" placeholder="Describe a change to this element">
        <button type="submit">Ask</button>
      </form>
      <button type="button" id="panel-close">Close</button>
    </div>
    <div id="chat">
      <h2>Chat{{if .Generator}} ({{.Generator}}){{end}}</h2>
      <div id="transcript"></div>
      {{if .Generator}}<form id="chat-form">
        <input type="text" id="chat-input" placeholder="Describe a component">
        <button type="submit">Send</button>
      </form>{{else}}<p class="note">No generator is configured.</p>{{end}}
      <form id="clear-form"><button type="submit">Clear session</button></form>
    </div>
  </aside>
</main>
<script>
(function () {
  var frame = document.getElementById('preview');
  var generation = '';
  var socket = null;

  function api(method, path, body) {
    var opts = { method: method, headers: {} };
    if (body !== undefined) {
      opts.headers['Content-Type'] = 'application/json';
      opts.body = JSON.stringify(body);
    }
    return fetch(path, opts).then(function (res) {
      return res.json().then(function (data) {
        if (!res.ok) throw new Error((data.error && data.error.message) || res.statusText);
        return data;
      });
    });
  }

  function render(state) {
    var status = document.getElementById('status');
    status.textContent = state.state;
    status.className = 'pill ' + state.state;
    document.getElementById('component').textContent = state.componentName || '';
    document.getElementById('grid').checked = !!state.showGrid;

    var banner = document.getElementById('banner');
    if (state.error && state.errorVisible) {
      document.getElementById('banner-message').textContent = state.error.message;
      document.getElementById('banner-stack').textContent = state.error.stack || '';
      document.getElementById('banner-toggle').style.display = state.error.stack ? '' : 'none';
      banner.style.display = 'block';
    } else {
      banner.style.display = 'none';
      banner.classList.remove('expanded');
    }

    var panel = document.getElementById('panel');
    if (state.panelOpen && state.selection) {
      panel.style.display = 'block';
      api('GET', '/api/properties').then(renderPanel).catch(function () {});
    } else {
      panel.style.display = 'none';
    }
  }

  function renderPanel(panel) {
    document.getElementById('panel-title').textContent =
      '<' + panel.tagName + '>' + (panel.className ? ' .' + panel.className.split(/\s+/)[0] : '');
    var box = document.getElementById('panel-fields');
    box.textContent = '';
    if (!panel.editable) {
      var note = document.createElement('p');
      note.className = 'note';
      note.textContent = 'Add a className to this element to edit its styles.';
      box.appendChild(note);
      return;
    }
    panel.fields.forEach(function (field) {
      var row = document.createElement('label');
      row.className = 'field';
      row.appendChild(document.createTextNode(field.label));
      var input;
      if (field.kind === 'select') {
        input = document.createElement('select');
        field.choices.forEach(function (choice) {
          var opt = document.createElement('option');
          opt.value = choice.value;
          opt.textContent = choice.label;
          input.appendChild(opt);
        });
      } else {
        input = document.createElement('input');
        input.type = field.kind === 'color' ? 'color' : field.kind === 'range' ? 'range' : 'text';
        if (field.kind === 'range') {
          input.min = field.min;
          input.max = field.max;
        }
      }
      input.value = field.value;
      input.addEventListener('change', function () {
        api('POST', '/api/properties', { property: field.property, rawValue: input.value }).catch(showProblem);
      });
      row.appendChild(input);
      box.appendChild(row);
    });
  }

  function showProblem(err) {
    var t = document.getElementById('transcript');
    var div = document.createElement('div');
    div.className = 'msg assistant';
    div.textContent = 'Error: ' + err.message;
    t.appendChild(div);
    t.scrollTop = t.scrollHeight;
  }

  function loadTranscript() {
    return api('GET', '/api/session').then(function (session) {
      var t = document.getElementById('transcript');
      t.textContent = '';
      session.messages.forEach(function (m) {
        var div = document.createElement('div');
        div.className = 'msg ' + m.role;
        if (m.html) div.innerHTML = m.html; else div.textContent = m.content;
        t.appendChild(div);
      });
      t.scrollTop = t.scrollHeight;
    });
  }

  function chat(message, scoped) {
    return api('POST', '/api/chat', { message: message, elementScoped: scoped })
      .then(loadTranscript)
      .catch(showProblem);
  }

  function connect() {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    socket = new WebSocket(scheme + location.host + '/ws');
    socket.onmessage = function (event) {
      var update = JSON.parse(event.data);
      if (update.type === 'document') {
        generation = update.generation;
        frame.srcdoc = update.document;
      }
      if (update.command && frame.contentWindow) {
        frame.contentWindow.postMessage(update.command, '*');
      }
      render(update.state);
    };
    socket.onclose = function () { setTimeout(connect, 1000); };
  }

  window.addEventListener('message', function (event) {
    if (event.source !== frame.contentWindow) return;
    var data = event.data;
    if (!data || typeof data.type !== 'string') return;
    if (socket && socket.readyState === WebSocket.OPEN) {
      socket.send(JSON.stringify({ generation: data.generation || generation, message: data }));
    }
  });

  document.getElementById('grid').addEventListener('change', function (e) {
    api('PUT', '/api/display', { showGrid: e.target.checked }).catch(showProblem);
  });
  document.getElementById('reload').addEventListener('click', function () {
    api('POST', '/api/reload').catch(showProblem);
  });
  document.getElementById('banner-toggle').addEventListener('click', function () {
    var banner = document.getElementById('banner');
    banner.classList.toggle('expanded');
    this.textContent = banner.classList.contains('expanded') ? 'Hide details' : 'Show details';
  });
  document.getElementById('banner-dismiss').addEventListener('click', function () {
    api('POST', '/api/error/dismiss').catch(showProblem);
  });
  document.getElementById('panel-close').addEventListener('click', function () {
    api('DELETE', '/api/selection').catch(showProblem);
  });
  document.getElementById('element-form').addEventListener('submit', function (e) {
    e.preventDefault();
    var input = document.getElementById('element-input');
    if (!input.value.trim()) return;
    chat(input.value, true);
    input.value = '';
  });
  var chatForm = document.getElementById('chat-form');
  if (chatForm) {
    chatForm.addEventListener('submit', function (e) {
      e.preventDefault();
      var input = document.getElementById('chat-input');
      if (!input.value.trim()) return;
      chat(input.value, false);
      input.value = '';
    });
  }
  document.getElementById('clear-form').addEventListener('submit', function (e) {
    e.preventDefault();
    api('DELETE', '/api/session').then(loadTranscript).catch(showProblem);
  });

  api('GET', '/api/state').then(render).catch(function () {});
  loadTranscript().catch(function () {});
  connect();
})();
</script>
</body>
</html>
`
