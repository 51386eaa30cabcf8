package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/voltspan/feederflow/pkg/version"
)

// WriteHTML renders the interactive study dashboard. Everything is
// inlined so the file can be mailed around or dropped on a share
// without a web server next to it.
func WriteHTML(d Data, path string) error {
	nodeJSON, err := json.Marshal(d.Nodes)
	if err != nil {
		return err
	}
	edgeJSON, err := json.Marshal(d.Edges)
	if err != nil {
		return err
	}
	violJSON, err := json.Marshal(d.Violations)
	if err != nil {
		return err
	}

	critical := 0
	for _, v := range d.Violations {
		if v.Severity == "critical" {
			critical++
		}
	}

	// HTML Report Template.
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>FeederFlow Study</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg: #050505;
            --surface: rgba(255, 255, 255, 0.03);
            --surface-hover: rgba(255, 255, 255, 0.06);
            --border: rgba(255, 255, 255, 0.1);
            --primary: #00FF99;
            --secondary: #874BFD;
            --danger: #FF3366;
            --text: #F8FAFC;
            --text-dim: #94A3B8;
        }

        /* 1. Base styles. */
        * { box-sizing: border-box; }
        body {
            background: var(--bg);
            color: var(--text);
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
            margin: 0;
            padding: 40px;
            font-size: 14px;
        }

        /* 2. Header styles. */
        .header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 40px;
            border-bottom: 1px solid var(--border);
            padding-bottom: 20px;
        }
        .logo { font-size: 1.5rem; font-weight: 700; letter-spacing: -1px; }
        .logo span { color: var(--primary); }
        .meta { color: var(--text-dim); }

        /* 3. KPI styles. */
        .kpi-grid {
            display: grid;
            grid-template-columns: repeat(4, 1fr);
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
            transition: transform 0.2s, background 0.2s;
        }
        .card:hover { background: var(--surface-hover); transform: translateY(-2px); }
        .card h3 { margin: 0 0 10px 0; font-size: 0.75rem; color: var(--text-dim); text-transform: uppercase; letter-spacing: 1.2px; }
        .card .value { font-size: 2.2rem; font-weight: 700; }
        .card .value.bad { color: var(--danger); }
        .card .value.ok { color: var(--primary); }

        /* 4. Analytics chart styles. */
        .analytics-grid {
            display: grid;
            grid-template-columns: 3fr 2fr;
            gap: 20px;
            margin-bottom: 40px;
        }
        .chart-container {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
            position: relative;
            height: 350px;
            display: flex;
            flex-direction: column;
        }
        .chart-header {
            font-size: 0.85rem;
            font-weight: 600;
            margin-bottom: 16px;
            color: var(--text);
            display: flex;
            justify-content: space-between;
        }
        .chart-body { flex: 1; position: relative; width: 100%; overflow: hidden; }

        /* 5. Violations styles. */
        .violations {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            padding: 24px;
            margin-bottom: 40px;
        }
        .violation-row { padding: 8px 0; border-bottom: 1px solid var(--border); color: var(--text-dim); }
        .violation-row:last-child { border-bottom: none; }
        .violation-row b { color: var(--text); }

        /* 6. Data grid styles. */
        .table-wrapper {
            background: var(--surface);
            border: 1px solid var(--border);
            border-radius: 16px;
            overflow: hidden;
            display: flex;
            flex-direction: column;
            margin-bottom: 40px;
        }

        .toolbar {
            padding: 16px 24px;
            border-bottom: 1px solid var(--border);
            display: flex;
            gap: 12px;
            align-items: center;
        }
        .toolbar .title { font-weight: 600; margin-right: auto; }
        .search-box {
            background: rgba(0,0,0,0.3);
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 8px 12px;
            color: var(--text);
            font-family: inherit;
            width: 300px;
            outline: none;
        }
        .search-box:focus { border-color: var(--primary); }

        .table-scroll {
            width: 100%;
            overflow-x: auto; /* Horizontal Scroll */
        }

        table { width: 100%; border-collapse: collapse; min-width: 900px; }
        th, td { padding: 14px 24px; text-align: left; border-bottom: 1px solid var(--border); white-space: nowrap; }
        th {
            background: rgba(0,0,0,0.5);
            color: var(--text-dim);
            font-size: 0.75rem;
            text-transform: uppercase;
            font-weight: 600;
            user-select: none;
        }
        tr:last-child td { border-bottom: none; }
        tr:hover { background: rgba(255,255,255,0.02); }

        .badge { padding: 4px 10px; border-radius: 20px; font-size: 0.7rem; font-weight: 700; }
        .badge.CRITICAL { background: rgba(255, 51, 102, 0.15); color: var(--danger); }
        .badge.WARNING { background: rgba(135, 75, 253, 0.15); color: var(--secondary); }
        .badge.OK { background: rgba(0, 255, 153, 0.15); color: var(--primary); }
        .badge.SKIPPED { background: rgba(148, 163, 184, 0.15); color: var(--text-dim); }

        /* 7. Footer styles. */
        footer { margin-top: 60px; color: var(--text-dim); font-size: 0.8rem; text-align: center; border-top: 1px solid var(--border); padding-top: 20px; }
    </style>
</head>
<body>

    <div class="header">
        <div class="logo">FEEDER<span>FLOW</span>_STUDY</div>
        <div class="meta">{{NETWORK_NAME}} @ {{SOURCE_KV}} kV &middot; Generated: {{GENERATED_TIME}}</div>
    </div>

    <!-- 1. KPI Cards section. -->
    <div class="kpi-grid">
        <div class="card">
            <h3>Min Voltage</h3>
            <div class="value {{MINPU_CLASS}}">{{MIN_PU}} pu</div>
        </div>
        <div class="card">
            <h3>Total Losses</h3>
            <div class="value">{{LOSS_KW}} kW</div>
        </div>
        <div class="card">
            <h3>Efficiency</h3>
            <div class="value ok">{{EFFICIENCY}}%</div>
        </div>
        <div class="card">
            <h3>Critical Violations</h3>
            <div class="value {{CRIT_CLASS}}">{{CRIT_COUNT}}</div>
        </div>
    </div>

    <!-- 2. Charts section. -->
    <div class="analytics-grid">
        <div class="chart-container">
            <div class="chart-header">Voltage Profile (distance vs. per-unit)</div>
            <div class="chart-body">
                <canvas id="profileChart"></canvas>
            </div>
        </div>
        <div class="chart-container">
            <div class="chart-header">Segment Loading</div>
            <div class="chart-body">
                <canvas id="loadingChart"></canvas>
            </div>
        </div>
    </div>

    <!-- 3. Violations section. -->
    <div class="violations">
        <div class="chart-header">Policy Violations</div>
        <div id="violation-list"></div>
    </div>

    <!-- 4. Node grid section. -->
    <div class="table-wrapper">
        <div class="toolbar">
            <span class="title">Buses</span>
            <input type="text" id="nodeSearch" class="search-box" placeholder="Filter buses..." onkeyup="filterNodes()">
        </div>
        <div class="table-scroll">
            <table>
                <thead>
                    <tr>
                        <th>Bus</th>
                        <th>Kind</th>
                        <th>Load kVA</th>
                        <th>Distance m</th>
                        <th>Voltage kV</th>
                        <th>Per Unit</th>
                        <th>Drop %</th>
                        <th>Status</th>
                    </tr>
                </thead>
                <tbody id="node-body"></tbody>
            </table>
        </div>
    </div>

    <!-- 5. Segment grid section. -->
    <div class="table-wrapper">
        <div class="toolbar">
            <span class="title">Segments</span>
            <input type="text" id="edgeSearch" class="search-box" placeholder="Filter segments..." onkeyup="filterEdges()">
        </div>
        <div class="table-scroll">
            <table>
                <thead>
                    <tr>
                        <th>Segment</th>
                        <th>From</th>
                        <th>To</th>
                        <th>Conductor</th>
                        <th>Length m</th>
                        <th>Current A</th>
                        <th>Loading %</th>
                        <th>Loss kW</th>
                        <th>Status</th>
                    </tr>
                </thead>
                <tbody id="edge-body"></tbody>
            </table>
        </div>
    </div>

    <footer>
        Generated by FeederFlow ` + version.Current + ` | Radial Feeder Load-Flow
    </footer>

    <script>
        // --- DATA ---
        window.NODE_DATA = {{NODE_DATA}};
        window.EDGE_DATA = {{EDGE_DATA}};
        window.VIOLATION_DATA = {{VIOLATION_DATA}};

        // Accepts both row statuses (OK, WARN, CRIT, N/A) and violation
        // severities (warn, critical).
        function badgeClass(status) {
            if (status === 'CRIT' || status === 'critical') return 'CRITICAL';
            if (status === 'WARN' || status === 'warn') return 'WARNING';
            if (status === 'N/A') return 'SKIPPED';
            return 'OK';
        }

        // --- 1. TABLE INITIALIZATION ---
        const nodeBody = document.getElementById('node-body');
        const edgeBody = document.getElementById('edge-body');

        function renderNodes(data) {
            nodeBody.innerHTML = '';
            data.forEach(function(n) {
                const tr = document.createElement('tr');
                const status = n.computed ? badgeClass(n.status) : 'SKIPPED';
                const puStyle = n.per_unit < 0.95 ? 'color: #FF3366; font-weight: bold;' : 'color: #00FF99;';
                tr.innerHTML =
                    '<td style="font-weight:600; color:#fff;">' + n.id + '</td>' +
                    '<td style="opacity:0.8;">' + n.kind + '</td>' +
                    '<td>' + n.load_kva.toFixed(1) + '</td>' +
                    '<td>' + (n.computed ? n.distance_m.toFixed(0) : '-') + '</td>' +
                    '<td>' + (n.computed ? n.voltage_kv.toFixed(3) : '-') + '</td>' +
                    '<td style="' + puStyle + '">' + (n.computed ? n.per_unit.toFixed(4) : '-') + '</td>' +
                    '<td>' + (n.computed ? n.drop_percent.toFixed(2) : '-') + '</td>' +
                    '<td><span class="badge ' + status + '">' + status + '</span></td>';
                nodeBody.appendChild(tr);
            });
        }

        function renderEdges(data) {
            edgeBody.innerHTML = '';
            data.forEach(function(e) {
                const tr = document.createElement('tr');
                const status = e.computed ? badgeClass(e.status) : 'SKIPPED';
                const loadStyle = e.loading_percent > 100 ? 'color: #FF3366; font-weight: bold;' : '';
                tr.innerHTML =
                    '<td style="font-weight:600; color:#fff;">' + e.id + '</td>' +
                    '<td>' + e.from + '</td>' +
                    '<td>' + e.to + '</td>' +
                    '<td style="opacity:0.8;">' + e.conductor + '</td>' +
                    '<td>' + e.length_m.toFixed(0) + '</td>' +
                    '<td>' + (e.computed ? e.current_a.toFixed(2) : '-') + '</td>' +
                    '<td style="' + loadStyle + '">' + (e.computed ? e.loading_percent.toFixed(1) : '-') + '</td>' +
                    '<td>' + (e.computed ? e.loss_kw.toFixed(3) : '-') + '</td>' +
                    '<td><span class="badge ' + status + '">' + status + '</span></td>';
                edgeBody.appendChild(tr);
            });
        }

        renderNodes(window.NODE_DATA);
        renderEdges(window.EDGE_DATA);

        // --- 2. VIOLATIONS ---
        const vlist = document.getElementById('violation-list');
        if (window.VIOLATION_DATA.length === 0) {
            vlist.innerHTML = '<div class="violation-row">No violations. All buses and segments are within limits.</div>';
        } else {
            window.VIOLATION_DATA.forEach(function(v) {
                const div = document.createElement('div');
                div.className = 'violation-row';
                div.innerHTML = '<span class="badge ' + badgeClass(v.severity) + '">' + v.severity.toUpperCase() + '</span> ' +
                    '<b>' + v.subject + '</b> ' + v.message + ' <span style="opacity:0.5">[' + v.rule_id + ']</span>';
                vlist.appendChild(div);
            });
        }

        // --- 3. SEARCH ---
        function filterNodes() {
            const filter = document.getElementById('nodeSearch').value.toUpperCase();
            renderNodes(window.NODE_DATA.filter(function(n) {
                return Object.values(n).some(function(val) {
                    return String(val).toUpperCase().includes(filter);
                });
            }));
        }
        function filterEdges() {
            const filter = document.getElementById('edgeSearch').value.toUpperCase();
            renderEdges(window.EDGE_DATA.filter(function(e) {
                return Object.values(e).some(function(val) {
                    return String(val).toUpperCase().includes(filter);
                });
            }));
        }

        // --- 4. CHARTS ---
        const computed = window.NODE_DATA.filter(function(n) { return n.computed; });
        const profile = computed.slice().sort(function(a, b) { return a.distance_m - b.distance_m; });

        new Chart(document.getElementById('profileChart').getContext('2d'), {
            type: 'scatter',
            data: {
                datasets: [{
                    label: 'Bus voltage (pu)',
                    data: profile.map(function(n) { return { x: n.distance_m, y: n.per_unit, id: n.id }; }),
                    backgroundColor: profile.map(function(n) { return n.per_unit < 0.95 ? '#FF3366' : '#00FF99'; }),
                    pointRadius: 5,
                    pointHoverRadius: 7
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    legend: { display: false },
                    tooltip: {
                        backgroundColor: 'rgba(10,10,10,0.9)',
                        borderColor: 'rgba(255,255,255,0.1)',
                        borderWidth: 1,
                        padding: 10,
                        displayColors: false,
                        callbacks: {
                            label: function(context) {
                                const p = context.raw;
                                return p.id + ': ' + p.y.toFixed(4) + ' pu @ ' + p.x.toFixed(0) + ' m';
                            }
                        }
                    }
                },
                scales: {
                    y: {
                        grid: { color: 'rgba(255,255,255,0.03)' },
                        ticks: { color: '#64748B', font: { family: 'monospace' } },
                        title: { display: true, text: 'Voltage (pu)', color: '#94A3B8' }
                    },
                    x: {
                        grid: { color: 'rgba(255,255,255,0.03)' },
                        ticks: { color: '#64748B', font: { family: 'monospace' } },
                        title: { display: true, text: 'Distance from source (m)', color: '#94A3B8' }
                    }
                }
            }
        });

        const loaded = window.EDGE_DATA.filter(function(e) { return e.computed; })
            .slice().sort(function(a, b) { return b.loading_percent - a.loading_percent; })
            .slice(0, 12);

        new Chart(document.getElementById('loadingChart').getContext('2d'), {
            type: 'bar',
            data: {
                labels: loaded.map(function(e) { return e.id; }),
                datasets: [{
                    label: 'Loading (%)',
                    data: loaded.map(function(e) { return e.loading_percent; }),
                    backgroundColor: loaded.map(function(e) {
                        if (e.loading_percent > 100) return '#FF3366';
                        if (e.loading_percent > 80) return '#874BFD';
                        return 'rgba(0, 255, 153, 0.5)';
                    }),
                    borderRadius: 6,
                    maxBarThickness: 40
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                indexAxis: 'y',
                plugins: { legend: { display: false } },
                scales: {
                    x: {
                        beginAtZero: true,
                        grid: { color: 'rgba(255,255,255,0.03)' },
                        ticks: { color: '#64748B', font: { family: 'monospace' }, callback: function(val) { return val + '%'; } }
                    },
                    y: {
                        grid: { display: false },
                        ticks: { color: '#94A3B8', font: { weight: 600 } }
                    }
                }
            }
        });
    </script>
</body>
</html>`

	minPUClass := "ok"
	if d.System.MinPerUnit < 0.95 {
		minPUClass = "bad"
	}
	critClass := "ok"
	if critical > 0 {
		critClass = "bad"
	}

	html = strings.ReplaceAll(html, "{{NETWORK_NAME}}", d.NetworkName)
	html = strings.ReplaceAll(html, "{{SOURCE_KV}}", fmt.Sprintf("%.1f", d.SourceKV))
	html = strings.ReplaceAll(html, "{{GENERATED_TIME}}", d.GeneratedAt.Format("2006-01-02 15:04:05"))
	html = strings.ReplaceAll(html, "{{MIN_PU}}", fmt.Sprintf("%.4f", d.System.MinPerUnit))
	html = strings.ReplaceAll(html, "{{MINPU_CLASS}}", minPUClass)
	html = strings.ReplaceAll(html, "{{LOSS_KW}}", fmt.Sprintf("%.2f", d.System.TotalLossKW))
	html = strings.ReplaceAll(html, "{{EFFICIENCY}}", fmt.Sprintf("%.2f", d.System.EfficiencyPercent))
	html = strings.ReplaceAll(html, "{{CRIT_COUNT}}", fmt.Sprintf("%d", critical))
	html = strings.ReplaceAll(html, "{{CRIT_CLASS}}", critClass)
	html = strings.ReplaceAll(html, "{{NODE_DATA}}", string(nodeJSON))
	html = strings.ReplaceAll(html, "{{EDGE_DATA}}", string(edgeJSON))
	html = strings.ReplaceAll(html, "{{VIOLATION_DATA}}", string(violJSON))

	return os.WriteFile(path, []byte(html), 0644)
}
