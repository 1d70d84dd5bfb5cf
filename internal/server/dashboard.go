package server

// DashboardHTML is the embedded single-page dashboard for tsmr.
// It polls /api/stats and shows extracted batches pushed over /ws.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>tsmr Dashboard</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .stats {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .stat-card {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 16px; text-align: center;
  }
  .stat-number { font-size: 1.8em; font-weight: 700; color: #58a6ff; }
  .stat-label { font-size: 0.8em; color: #8b949e; margin-top: 4px; }
  .fill { height: 6px; background: #21262d; border-radius: 3px; margin-top: 8px; }
  .fill span { display: block; height: 100%; background: #d29922; border-radius: 3px; }
  .log {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    max-height: 500px; overflow-y: auto;
  }
  .log-header {
    padding: 12px 16px; border-bottom: 1px solid #30363d; font-weight: 600;
    color: #58a6ff; position: sticky; top: 0; background: #161b22;
  }
  .row {
    display: grid; grid-template-columns: 200px 160px 80px 1fr;
    padding: 8px 16px; border-bottom: 1px solid #21262d; font-size: 0.85em;
  }
  .muted { color: #8b949e; }
  .status { font-weight: 600; }
  .status.connected { color: #3fb950; }
  .status.disconnected { color: #f85149; }
</style>
</head>
<body>
<h1>tsmr</h1>
<p class="subtitle">Measurement replay ring &middot; <span id="status" class="status disconnected">disconnected</span></p>

<div class="stats">
  <div class="stat-card"><div class="stat-number" id="len">0</div><div class="stat-label">Buffered</div>
    <div class="fill"><span id="fill" style="width:0%"></span></div></div>
  <div class="stat-card"><div class="stat-number" id="cap">0</div><div class="stat-label">Capacity</div></div>
  <div class="stat-card"><div class="stat-number" id="oldest">-</div><div class="stat-label">Oldest ts</div></div>
  <div class="stat-card"><div class="stat-number" id="batches">0</div><div class="stat-label">Batches</div></div>
  <div class="stat-card"><div class="stat-number" id="extracted">0</div><div class="stat-label">Extracted</div></div>
</div>

<div class="log">
  <div class="log-header">Extracted batches</div>
  <div id="rows"><div class="row muted">Waiting for extractions...</div></div>
</div>

<script>
const MAX_ROWS = 200;
const rows = document.getElementById('rows');
let batches = 0, extracted = 0, first = true;

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');
  const status = document.getElementById('status');
  ws.onopen = () => { status.textContent = 'connected'; status.className = 'status connected'; };
  ws.onclose = () => {
    status.textContent = 'disconnected'; status.className = 'status disconnected';
    setTimeout(connect, 2000);
  };
  ws.onmessage = (msg) => {
    const ev = JSON.parse(msg.data);
    if (ev.type === 'batch') addBatch(ev.batch);
  };
}

function addBatch(b) {
  const ms = b.measurements || [];
  batches++; extracted += ms.length;
  document.getElementById('batches').textContent = batches;
  document.getElementById('extracted').textContent = extracted;
  if (first) { rows.innerHTML = ''; first = false; }

  const row = document.createElement('div');
  row.className = 'row';
  const span = ms.length ? ms[0].ts_ms + ' .. ' + ms[ms.length - 1].ts_ms : '';
  row.innerHTML =
    '<span class="muted">' + new Date(b.extracted_at).toLocaleTimeString() + '</span>' +
    '<span>cutoff ' + b.cutoff_ms + '</span>' +
    '<span>' + ms.length + '</span>' +
    '<span class="muted">' + span + '</span>';
  rows.insertBefore(row, rows.firstChild);
  while (rows.children.length > MAX_ROWS) rows.removeChild(rows.lastChild);
}

async function pollStats() {
  try {
    const s = await (await fetch('/api/stats')).json();
    document.getElementById('len').textContent = s.len;
    document.getElementById('cap').textContent = s.cap;
    document.getElementById('oldest').textContent = s.len > 0 ? s.oldest_ms : '-';
    document.getElementById('fill').style.width = (s.cap > 0 ? 100 * s.len / s.cap : 0) + '%';
  } catch (e) {}
}

connect();
pollStats();
setInterval(pollStats, 1000);
</script>
</body>
</html>`
