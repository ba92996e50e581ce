package sandbox

const plainPageStyle = `html, body { margin: 0; min-height: 100%; }
body {
  box-sizing: border-box;
  padding: 24px;
  background-color: #ffffff;
  font-family: system-ui, -apple-system, 'Segoe UI', Roboto, sans-serif;
}`

const gridPageStyle = `html, body { margin: 0; min-height: 100%; }
body {
  box-sizing: border-box;
  padding: 24px;
  background-color: #fafafa;
  background-image: radial-gradient(circle, #d4d4d8 1px, transparent 1px);
  background-size: 20px 20px;
  font-family: system-ui, -apple-system, 'Segoe UI', Roboto, sans-serif;
}`

const affordanceStyle = `.preview-selectable { cursor: pointer; }
.preview-selectable:hover { outline: 1px dashed #60a5fa; outline-offset: 2px; }
.preview-selected, .preview-selected:hover { outline: 2px solid #2563eb !important; outline-offset: 2px; }
.preview-empty, .preview-placeholder {
  max-width: 420px;
  margin: 64px auto;
  text-align: center;
  color: #6b7280;
}
.preview-empty h3, .preview-placeholder strong { color: #111827; }
.preview-empty-icon { font-size: 40px; }
.preview-inline-error {
  border: 1px solid #fecaca;
  border-radius: 8px;
  background: #fef2f2;
  color: #991b1b;
  padding: 16px;
}
.preview-inline-error pre { white-space: pre-wrap; margin: 8px 0 0; font-size: 12px; }`

// pageTemplate is the full sandbox document. The plain script registers the
// error listeners and the readiness announcer before Babel evaluates the
// component block.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="jsxlive-generation" content="{{html .Generation}}">
<title>{{.Title}}</title>
{{- range .RuntimeScripts}}
<script crossorigin src="{{.}}"></script>
{{- end}}
<style>
{{.PageStyle}}

/* component */
{{.CSS}}

/* preview */
{{.AffordanceStyle}}
</style>
</head>
<body>
{{- if .Empty}}
<div id="root">
<div class="preview-empty" data-preview-placeholder="empty">
<div class="preview-empty-icon">&#127912;</div>
<h3>Component Preview</h3>
<p>Start a conversation with AI to generate your component</p>
<p>Your component will appear here in real time</p>
</div>
</div>
{{- else}}
<div id="root"></div>
<script>
` + runtimeScript + `
</script>
<script type="text/babel" data-presets="env,react">
{{.Source}}

` + harnessScript + `
</script>
{{- end}}
</body>
</html>
`

// runtimeScript posts messages to the host, reports uncaught errors and owns
// the one-shot readiness announcement.
const runtimeScript = `(function () {
  var generation = {{json .Generation}};
  var limits = {{json .Limits}};
  var mounted = false;

  function post(message) {
    message.generation = generation;
    try {
      window.parent.postMessage(message, '*');
    } catch (e) {}
  }

  function showInline(title, message) {
    var root = document.getElementById('root');
    if (!root) return;
    root.innerHTML = '';
    var box = document.createElement('div');
    box.className = 'preview-inline-error';
    box.setAttribute('data-preview-placeholder', 'error');
    var heading = document.createElement('strong');
    heading.textContent = title;
    var detail = document.createElement('pre');
    detail.textContent = message;
    box.appendChild(heading);
    box.appendChild(detail);
    root.appendChild(box);
  }

  function describeError(err, fallback) {
    if (err && err.message) return String(err.message);
    if (err !== undefined && err !== null && typeof err !== 'object') return String(err);
    return fallback || 'Unknown error';
  }

  function clip(value, limit) {
    var s = String(value);
    if (s.length <= limit) return s;
    return Array.from(s).slice(0, limit).join('');
  }

  function reportError(err, fallback) {
    var message = { type: 'PREVIEW_ERROR', error: clip(describeError(err, fallback), limits.error) };
    if (err && err.stack) message.stack = clip(err.stack, limits.stack);
    post(message);
  }

  window.__jsxlive = {
    generation: generation,
    post: post,
    showInline: showInline,
    describeError: describeError,
    reportError: reportError,
    clip: clip,
    limits: limits,
    isMounted: function () { return mounted; },
    announceReady: function () {
      if (mounted) return;
      mounted = true;
      post({ type: 'PREVIEW_READY' });
    }
  };

  window.addEventListener('error', function (event) {
    if (!mounted) {
      showInline('Component failed to load', describeError(event.error, event.message));
      return;
    }
    reportError(event.error, event.message);
  });

  window.addEventListener('unhandledrejection', function (event) {
    if (!mounted) return;
    reportError(event.reason, 'Unhandled promise rejection');
  });
})();`

// harnessScript resolves the component by name, invokes it with placeholder
// props inside an error boundary and installs the selection instrumentation.
const harnessScript = `var __jsxliveResolved = {{if .ComponentName}}(typeof {{.ComponentName}} === 'function' ? {{.ComponentName}} : null){{else}}null{{end}};

(function (Resolved) {
  var runtime = window.__jsxlive;
  var componentName = {{json .ComponentName}};
  var inspected = {{json .InspectedStyles}};
  var selectableClass = {{json .SelectableClass}};
  var selectedClass = {{json .SelectedClass}};
  var rootElement = document.getElementById('root');

  var props = {{.PropsJSON}};
  ({{json .Callbacks}}).forEach(function (name) {
    props[name] = function () {};
  });

  function markSelectable(node) {
    if (!node || !node.querySelectorAll) return;
    node.querySelectorAll('*').forEach(function (el) {
      if (!el.classList.contains(selectableClass)) el.classList.add(selectableClass);
    });
  }

  function clearSelected() {
    document.querySelectorAll('.' + selectedClass).forEach(function (el) {
      el.classList.remove(selectedClass);
    });
  }

  function describe(el) {
    var computed = window.getComputedStyle(el);
    var styles = {};
    inspected.forEach(function (key) {
      styles[key] = runtime.clip(computed[key] || '', runtime.limits.styleValue);
    });
    var raw = typeof el.className === 'string' ? el.className : (el.getAttribute('class') || '');
    var className = raw.split(/\s+/).filter(function (c) {
      return c && c !== selectableClass && c !== selectedClass;
    }).join(' ');
    var text = runtime.clip((el.textContent || '').trim(), Math.min(500, runtime.limits.textContent));
    return {
      type: el.getAttribute('type') || el.tagName.toLowerCase(),
      tagName: el.tagName,
      className: runtime.clip(className, runtime.limits.className),
      styles: styles,
      textContent: text
    };
  }

  function Unresolved() {
    var detail = componentName
      ? '"' + componentName + '" is not a function component.'
      : 'No component definition was found.';
    return React.createElement('div', { className: 'preview-placeholder', 'data-preview-placeholder': 'unresolved' },
      React.createElement('strong', null, 'Component could not be rendered'),
      React.createElement('p', null, detail));
  }

  function InlineError(p) {
    return React.createElement('div', { className: 'preview-inline-error', 'data-preview-placeholder': 'error' },
      React.createElement('strong', null, 'Error rendering component'),
      React.createElement('pre', null, p.message));
  }

  class Boundary extends React.Component {
    constructor(p) {
      super(p);
      this.state = { error: null };
    }
    static getDerivedStateFromError(error) {
      return { error: error };
    }
    componentDidCatch(error) {
      if (runtime.isMounted()) runtime.reportError(error);
    }
    componentDidMount() {
      if (this.state.error) return;
      markSelectable(rootElement);
      runtime.announceReady();
    }
    render() {
      if (this.state.error) {
        return React.createElement(InlineError, { message: runtime.describeError(this.state.error) });
      }
      return this.props.children;
    }
  }

  new MutationObserver(function (records) {
    records.forEach(function (record) {
      if (record.type === 'attributes') {
        if (!record.target.classList.contains(selectableClass)) record.target.classList.add(selectableClass);
        return;
      }
      record.addedNodes.forEach(function (node) {
        if (node.nodeType !== 1) return;
        if (!node.classList.contains(selectableClass)) node.classList.add(selectableClass);
        markSelectable(node);
      });
    });
  }).observe(rootElement, { childList: true, subtree: true, attributes: true, attributeFilter: ['class'] });

  document.addEventListener('click', function (event) {
    var target = event.target;
    if (!(target instanceof Element) || target === rootElement || !rootElement.contains(target)) return;
    event.preventDefault();
    event.stopPropagation();
    clearSelected();
    var element = describe(target);
    target.classList.add(selectedClass);
    runtime.post({ type: 'ELEMENT_SELECTED', element: element });
  }, true);

  window.addEventListener('message', function (event) {
    var data = event.data;
    if (data && data.type === 'CLEAR_SELECTION') clearSelected();
  });

  var body = Resolved ? React.createElement(Resolved, props) : React.createElement(Unresolved);
  var tree = React.createElement(Boundary, null, body);
  try {
    if (ReactDOM.createRoot) {
      ReactDOM.createRoot(rootElement).render(tree);
    } else {
      ReactDOM.render(tree, rootElement);
    }
  } catch (err) {
    runtime.showInline('Error rendering component', runtime.describeError(err));
  }
})(__jsxliveResolved);`
