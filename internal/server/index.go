package server

// indexHTML is the embedded control panel page. It polls /api/status
// once a second and drives /api/trigger and /api/cancel.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>sweepbench</title>
<style>
  body { font-family: sans-serif; max-width: 640px; margin: 2em auto; padding: 0 1em; background: #1c1c24; color: #e6e6ea; }
  h1 { font-size: 1.4em; }
  button { font-size: 1.1em; padding: 0.6em 1.6em; margin-right: 0.6em; border: 0; border-radius: 6px; cursor: pointer; }
  #trigger { background: #3a7d44; color: white; }
  #cancel { background: #8a3232; color: white; }
  button:disabled { opacity: 0.4; cursor: default; }
  #status { margin-top: 1.4em; padding: 1em; background: #2a2a34; border-radius: 6px; min-height: 4em; }
  .state { text-transform: uppercase; font-weight: bold; letter-spacing: 0.05em; }
  .err { color: #ff8a8a; }
  progress { width: 100%; margin-top: 0.8em; }
</style>
</head>
<body>
<h1>sweepbench control panel</h1>
<p>Sequences frequency sweeps across oscillator waveforms.</p>
<button id="trigger">Start sweeps</button>
<button id="cancel" disabled>Cancel</button>
<div id="status">Loading status...</div>
<progress id="progress" max="1" value="0" hidden></progress>
<script>
const triggerBtn = document.getElementById('trigger');
const cancelBtn = document.getElementById('cancel');
const statusEl = document.getElementById('status');
const progressEl = document.getElementById('progress');

triggerBtn.addEventListener('click', async () => {
  triggerBtn.disabled = true;
  await fetch('/api/trigger', { method: 'POST' });
  refresh();
});

cancelBtn.addEventListener('click', async () => {
  await fetch('/api/cancel', { method: 'POST' });
  refresh();
});

async function refresh() {
  try {
    const res = await fetch('/api/status');
    const st = await res.json();
    const busy = st.state === 'running' || st.state === 'initializing';
    triggerBtn.disabled = busy;
    cancelBtn.disabled = !busy;
    progressEl.hidden = !busy || !st.total_steps;
    if (st.total_steps) {
      progressEl.max = st.total_steps;
      progressEl.value = st.step_index + (busy ? 0 : st.total_steps);
    }
    let html = '<span class="state">' + st.state + '</span>';
    if (st.last_message) html += '<br>' + st.last_message;
    if (st.current_step) html += '<br><small>step ' + (st.step_index + 1) + '/' + st.total_steps + ': ' + st.current_step + '</small>';
    if (st.last_error) html += '<br><span class="err">' + st.last_error + '</span>';
    statusEl.innerHTML = html;
  } catch (e) {
    statusEl.innerHTML = '<span class="err">status unavailable</span>';
  }
}

refresh();
setInterval(refresh, 1000);
</script>
</body>
</html>`
