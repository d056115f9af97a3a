package config

type WorkerKeyStruct struct {
	PersistResultsQueue string
	ReportResultsQueue  string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue: "persist_results_queue",
	ReportResultsQueue:  "report_results_queue",
}
