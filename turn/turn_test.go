package turn

import (
	"strings"
	"testing"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
)

func TestLabels(t *testing.T) {
	if len(Labels()) != 5 {
		t.Fatalf("expected 5 labels, got %d", len(Labels()))
	}
	for _, l := range Labels() {
		if !l.Valid() {
			t.Errorf("label %s should be valid", l)
		}
	}
	if Label("sql_agent").Valid() {
		t.Error("aliases are not labels")
	}
	if !Summarize.Terminal() || RetrieveData.Terminal() {
		t.Error("only summarize is terminal")
	}
}

func TestTableCSV(t *testing.T) {
	tbl := NewTable([]string{"region", "total_sales_amount"}, [][]string{
		{"Kerala", "150000"},
		{"Tamil Nadu, South", "90000"},
	})
	got := tbl.CSV()
	want := "region,total_sales_amount\nKerala,150000\n\"Tamil Nadu, South\",90000\n"
	if got != want {
		t.Errorf("CSV() = %q, want %q", got, want)
	}
	if (&Table{Columns: []string{"a"}}).CSV() != "" {
		t.Error("empty table should render as empty CSV")
	}
	var nilTable *Table
	if !nilTable.Empty() || nilTable.Len() != 0 {
		t.Error("nil table should be empty")
	}
}

func TestTablePreview(t *testing.T) {
	tbl := NewTable([]string{"month_name", "sales"}, [][]string{{"Jan", "1"}, {"Feb", "2"}, {"Mar", "3"}})
	preview := tbl.Preview(2)
	if !strings.Contains(preview, "Feb") || strings.Contains(preview, "Mar") {
		t.Errorf("preview should be limited to two rows:\n%s", preview)
	}
	if i, ok := tbl.Column("SALES"); !ok || i != 1 {
		t.Errorf("Column lookup failed: %d %v", i, ok)
	}
}

func TestRetrievalStatus(t *testing.T) {
	ok := NewRetrieval("q", NewTable([]string{"a"}, [][]string{{"1"}}), "fine")
	if ok.FailedOrEmpty() || !ok.Succeeded() {
		t.Error("non-empty retrieval should succeed")
	}
	empty := NewRetrieval("q", NewTable([]string{"a"}, nil), "none")
	if empty.Status != RetrievalEmpty || !empty.FailedOrEmpty() {
		t.Error("empty retrieval should be flagged")
	}
	failed := FailedRetrieval("q", "An error occurred while processing: boom")
	if !failed.FailedOrEmpty() || failed.Succeeded() {
		t.Error("failed retrieval should be flagged")
	}
	var none *Retrieval
	if none.FailedOrEmpty() || none.Succeeded() {
		t.Error("absent retrieval is neither failed nor succeeded")
	}
}

func TestChartAndDispatch(t *testing.T) {
	if (&Chart{Err: "Error: No valid data available to visualize."}).Available() {
		t.Error("errored chart should not be available")
	}
	if !(&Chart{JSON: `{"data":[],"layout":{}}`}).Available() {
		t.Error("rendered chart should be available")
	}
	if !(&Dispatch{Status: "Email successfully sent to a@b.c."}).Succeeded() {
		t.Error("success marker not detected")
	}
	if (&Dispatch{Status: "Failed to send email."}).Succeeded() {
		t.Error("failure flagged as success")
	}
}

func TestStateLifecycle(t *testing.T) {
	prior := []*message.Message{
		message.Human("show sales"),
		message.Assistant("Total sales in 2024 were ₹1,50,000 across all regions, led by Kerala."),
		message.Assistant(`{"data": [], "layout": {}}`),
	}
	st := New("s1", prior, "email me that report")

	if len(st.History) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(st.History))
	}
	if st.LatestHumanMessage() != "email me that report" {
		t.Errorf("unexpected latest human message %q", st.LatestHumanMessage())
	}
	report, ok := st.PriorAssistantMessage(50)
	if !ok || !strings.HasPrefix(report, "Total sales") {
		t.Errorf("expected prior report, got %q", report)
	}
	if !st.IsFirstStep() {
		t.Error("fresh state should be first step")
	}

	st.SetDispatch(&Dispatch{Status: "Failed to send email.", Attempts: 2})
	st.SetDispatch(&Dispatch{Status: "Email successfully sent to a@b.c.", Attempts: 1})
	if st.DispatchAttempts() != 3 {
		t.Errorf("attempts should accumulate, got %d", st.DispatchAttempts())
	}
	if !st.HasRun(DispatchNotification) || st.HasRun(Visualize) {
		t.Error("step bookkeeping is wrong")
	}
	if st.IsFirstStep() {
		t.Error("state with dispatch output is not first step")
	}
	if st.Reply() != nil {
		t.Error("turn has no reply yet")
	}
}

func TestPriorAssistantMessageSkipsShortAndStructured(t *testing.T) {
	st := New("s", []*message.Message{message.Assistant("ok"), message.Assistant("{\"a\": \"" + strings.Repeat("x", 80) + "\"}")}, "send it")
	if _, ok := st.PriorAssistantMessage(50); ok {
		t.Error("expected no substantial prior message")
	}
}

func TestNotificationMaterial(t *testing.T) {
	report := strings.Repeat("Quarterly sales grew in every sub-region. ", 3)
	history := []*message.Message{message.Human("give me a report"), message.Assistant(report)}

	st := New("s1", history, "email me that report")
	m, ok := st.NotificationMaterial(50)
	if !ok || m.Kind != MaterialReport || m.Text != report {
		t.Fatalf("expected prior report, got %+v (ok=%v)", m, ok)
	}

	st.SetRetrieval(NewRetrieval("q", NewTable([]string{"a"}, [][]string{{"1"}}), "ok"))
	m, ok = st.NotificationMaterial(50)
	if !ok || m.Kind != MaterialData || m.Text != "a\n1\n" {
		t.Fatalf("expected fresh rows, got %+v", m)
	}

	empty := New("s2", nil, "send it")
	if _, ok := empty.NotificationMaterial(50); ok {
		t.Fatal("expected no material")
	}
}
