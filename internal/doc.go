// Package internal contains the implementation packages of jsxlive.
//
// # Package Organization
//
// The packages are organized by the stage of the preview they serve:
//
//   - normalize: rewrites generated JSX into a form the in-browser
//     compiler accepts (imports, exports, arrow components, template literals)
//   - resolve: picks the component to mount from the normalized source
//   - mockdata: placeholder props and callback stubs handed to the component
//   - sandbox: builds the self-contained preview document and its
//     instrumentation scripts
//   - protocol: the messages exchanged between the document and the host
//   - stylesheet: turns property edits into CSS rule changes
//   - bridge: the host-side state machine owning the current component,
//     selection, error and generation
//   - websocket: fans bridge snapshots out to connected host pages
//   - server: HTTP routes, the host page and the chat endpoint
//   - generator: LLM providers that produce components from chat turns
//   - session: chat transcripts kept in memory or sqlite
//   - watcher: reloads the component when its files change on disk
//   - probe: loads a document in headless Chrome for end-to-end checks
//   - config, logging, errors, validation, version: ambient support
//
// # Data Flow
//
// A component enters through the server (chat, API or file watcher), is
// handed to the bridge, and the bridge asks the sandbox builder for a new
// document stamped with a fresh generation. Host pages load the document in
// an isolated frame and relay its messages back; the bridge drops any message
// whose generation is not the current one.
package internal
