package store

import "github.com/campointeligente/chatbot/internal/models"

// DefaultStates returns the 27 Brazilian federative units. The SQL migrations
// seed the same rows; the in-memory store uses this table directly.
func DefaultStates() []models.StateRef {
	return []models.StateRef{
		{Abbreviation: "AC", Name: "Acre"},
		{Abbreviation: "AL", Name: "Alagoas"},
		{Abbreviation: "AP", Name: "Amapá"},
		{Abbreviation: "AM", Name: "Amazonas"},
		{Abbreviation: "BA", Name: "Bahia"},
		{Abbreviation: "CE", Name: "Ceará"},
		{Abbreviation: "DF", Name: "Distrito Federal"},
		{Abbreviation: "ES", Name: "Espírito Santo"},
		{Abbreviation: "GO", Name: "Goiás"},
		{Abbreviation: "MA", Name: "Maranhão"},
		{Abbreviation: "MT", Name: "Mato Grosso"},
		{Abbreviation: "MS", Name: "Mato Grosso do Sul"},
		{Abbreviation: "MG", Name: "Minas Gerais"},
		{Abbreviation: "PA", Name: "Pará"},
		{Abbreviation: "PB", Name: "Paraíba"},
		{Abbreviation: "PR", Name: "Paraná"},
		{Abbreviation: "PE", Name: "Pernambuco"},
		{Abbreviation: "PI", Name: "Piauí"},
		{Abbreviation: "RJ", Name: "Rio de Janeiro"},
		{Abbreviation: "RN", Name: "Rio Grande do Norte"},
		{Abbreviation: "RS", Name: "Rio Grande do Sul"},
		{Abbreviation: "RO", Name: "Rondônia"},
		{Abbreviation: "RR", Name: "Roraima"},
		{Abbreviation: "SC", Name: "Santa Catarina"},
		{Abbreviation: "SP", Name: "São Paulo"},
		{Abbreviation: "SE", Name: "Sergipe"},
		{Abbreviation: "TO", Name: "Tocantins"},
	}
}

// DefaultPrompts returns the built-in pt-BR prompt templates. Operators may
// overwrite them in the database; these are the out-of-the-box texts.
func DefaultPrompts() []models.PromptTemplate {
	return []models.PromptTemplate{
		{
			Key:         "welcome_ask_name",
			Text:        "Olá! 👋 Seja bem-vindo(a) ao Campo Inteligente, seu assistente agrícola. Para começarmos, como posso te chamar?",
			Description: "Primeira mensagem do onboarding, pede o nome do usuário.",
		},
		{
			Key:         "welcome_ask_location_whatsapp",
			Text:        "Prazer, {user_nome}! 🌱 Para previsões precisas, compartilhe sua localização usando o clipe 📎 do WhatsApp.",
			Description: "Pede a localização nativa no canal WhatsApp.",
		},
		{
			Key:         "welcome_ask_location_web",
			Text:        "Prazer, {user_nome}! 🌱 Para previsões precisas, me diga em qual cidade você está (ex: Recife - PE).",
			Description: "Pede a cidade em texto livre no canal web.",
		},
		{
			Key:         "location_received_whatsapp",
			Text:        "Obrigado, {user_nome}! Localização registrada com sucesso. ✅",
			Description: "Agradecimento após localização compartilhada via WhatsApp.",
		},
		{
			Key:         "location_received_web",
			Text:        "Obrigado, {user_nome}! Registrei que você está em {cidade}. ✅",
			Description: "Agradecimento após cidade informada pelo webchat.",
		},
		{
			Key:         "location_not_found",
			Text:        "Não consegui encontrar a cidade '{cidade}'. Por favor, tente novamente ou digite 'menu' para voltar.",
			Description: "Cidade informada não localizada no geocoder.",
		},
		{
			Key:         "location_error",
			Text:        "Ops! 😔 Não consegui processar sua localização. Tente novamente ou digite 'menu' para voltar.",
			Description: "Evento de localização sem dados utilizáveis.",
		},
		{
			Key:         "main_menu_v2",
			Text:        "O que você gostaria de fazer?\n\n[1] 🌦️ Previsão do tempo\n[2] 🌱 Manejo de plantio\n[3] 💰 Preços de mercado\n[4] 📊 Relatórios\n[5] 🚜 Minha safra\n\nDigite o número ou a palavra da opção desejada.",
			Description: "Menu principal exibido após o onboarding.",
		},
		{
			Key:         "weather_submenu_choice",
			Text:        "Você quer a previsão para:\n\n[1] Minha cidade atual\n[2] Outra cidade\n\nDigite 1 ou 2.",
			Description: "Submenu do clima: cidade cadastrada ou outra.",
		},
		{
			Key:         "weather_ask_another_city",
			Text:        "Claro! Para qual cidade você quer a previsão? 🌍",
			Description: "Pede o nome da cidade para consulta de clima.",
		},
		{
			Key:         "weather_choice_invalid",
			Text:        "Não entendi sua escolha. 😅 Digite 1 para sua cidade atual ou 2 para outra cidade.",
			Description: "Escolha inválida no submenu do clima.",
		},
		{
			Key:         "weather_location_not_found",
			Text:        "Ainda não tenho sua localização. 📍 Me diga em qual cidade você está (ex: Recife - PE).",
			Description: "Usuário pediu o clima da cidade atual sem cidade cadastrada.",
		},
		{
			Key:         "weather_report",
			Text:        "Clima para *{cidade}*:\n🌡️ {descricao}, {temperatura}°C (Sensação: {sensacao}°C)\n💧 Umidade: {umidade}%\n\nDeseja consultar outra cidade ou voltar ao menu?",
			Description: "Resposta formatada da previsão do tempo.",
		},
		{
			Key:         "weather_not_found",
			Text:        "Ops! 😔 Não consegui a previsão para '{cidade}'. Por favor, digite um nome de cidade válido.",
			Description: "Consulta de clima sem resultado para a cidade informada.",
		},
		{
			Key:         "welcome_back",
			Text:        "Que bom te ver de novo, {user_nome}! 👋",
			Description: "Saudação de retorno após inatividade.",
		},
		{
			Key:         "default_fallback",
			Text:        "Desculpe, {user_nome}, não entendi o que você quis dizer. 🤔",
			Description: "Mensagem padrão quando nenhuma opção do menu casa.",
		},
		{
			Key:         "feature_planting_wip",
			Text:        "🌱 A funcionalidade de manejo de plantio está em construção. Em breve novidades!",
			Description: "Stub da opção de plantio.",
		},
		{
			Key:         "feature_prices_wip",
			Text:        "💰 A consulta de preços de mercado está em construção. Em breve novidades!",
			Description: "Stub da opção de preços.",
		},
		{
			Key:         "feature_reports_wip",
			Text:        "📊 Os relatórios personalizados estão em construção. Em breve novidades!",
			Description: "Stub da opção de relatórios.",
		},
		{
			Key:         "feature_harvest_wip",
			Text:        "🚜 O acompanhamento de safra está em construção. Em breve novidades!",
			Description: "Stub da opção de safra.",
		},
	}
}
