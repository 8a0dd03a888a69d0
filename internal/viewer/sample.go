/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package viewer

// SampleHTML is shown in the frame when the viewer has no live backend.
const SampleHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Sample Security Report</title>
  <style>
    body { margin: 0; padding: 32px; background: #f5f6f8; color: #2b2f36; font-family: "Segoe UI", Helvetica, Arial, sans-serif; }
    .sheet { max-width: 820px; margin: 0 auto; background: #fff; padding: 32px 40px; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,.08); }
    h1 { margin: 0 0 4px; font-size: 24px; }
    .lead { margin: 0 0 28px; color: #6b7280; }
    .stats { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; margin-bottom: 28px; }
    .stat { background: #eef2f7; border-radius: 6px; padding: 16px; text-align: center; }
    .stat b { display: block; font-size: 28px; }
    .stat span { font-size: 11px; letter-spacing: 1px; text-transform: uppercase; color: #6b7280; }
    table { width: 100%; border-collapse: collapse; }
    th, td { padding: 10px 12px; border-bottom: 1px solid #eceff3; text-align: left; }
    th { font-size: 11px; text-transform: uppercase; color: #6b7280; background: #f8f9fb; }
    .tag { padding: 3px 8px; border-radius: 4px; font-size: 12px; }
    .blocked { background: #fde8e8; color: #c81e1e; }
    .allowed { background: #def7ec; color: #03543f; }
  </style>
</head>
<body>
  <div class="sheet">
    <h1>Sample Security Report</h1>
    <p class="lead">Demo preview. Start the report backend to browse generated reports.</p>
    <div class="stats">
      <div class="stat"><b>1,247</b><span>Total events</span></div>
      <div class="stat"><b>892</b><span>Blocked</span></div>
      <div class="stat"><b>355</b><span>Allowed</span></div>
    </div>
    <h3>Top blocked items</h3>
    <table>
      <thead><tr><th>Item</th><th>Category</th><th>Count</th><th>Action</th></tr></thead>
      <tbody>
        <tr><td>BitTorrent</td><td>P2P</td><td>234</td><td><span class="tag blocked">Blocked</span></td></tr>
        <tr><td>gaming-site.com</td><td>Gaming</td><td>156</td><td><span class="tag blocked">Blocked</span></td></tr>
        <tr><td>social-media.app</td><td>Social</td><td>89</td><td><span class="tag allowed">Allowed</span></td></tr>
      </tbody>
    </table>
  </div>
</body>
</html>
`
